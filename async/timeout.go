// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package async

import (
	"context"
	"errors"
	"time"
)

// Timeout runs fn with a context that expires after d. If fn fails once the
// deadline has fired, the failure is reported as an *ElapsedError.
func Timeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	_, err := TimeoutValue(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func TimeoutValue[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	start := time.Now()
	value, err := fn(tctx)
	if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, &ElapsedError{After: time.Since(start)}
	}
	return value, err
}
