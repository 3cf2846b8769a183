// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package sevennet

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sevenDatabase/sevennet/neterr"
)

const initialRetryBackoff = 50 * time.Millisecond

// Retrier hands out a bounded number of attempts per time window. Which
// failures may be attempted again is decided per call by the kinds passed to
// ExecuteWithResult and ExecuteVoid.
type Retrier struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	backoff     time.Duration
	failures    int
	lastFailure time.Time
}

func NewRetrier(maxAttempts int, window time.Duration) *Retrier {
	return &Retrier{
		maxAttempts: maxAttempts,
		window:      window,
		backoff:     initialRetryBackoff,
	}
}

// ExecuteWithResult runs op until it succeeds, fails with a kind outside
// retryOn, runs out of attempts or ctx ends. The last failure is returned.
// Attempts are spaced by an exponential backoff.
func ExecuteWithResult[T any](ctx context.Context, r *Retrier, retryOn []neterr.Kind, op func(context.Context) (T, *neterr.Error)) (T, *neterr.Error) {
	var zero T
	delay := r.backoff

	for {
		value, err := op(ctx)
		if err == nil {
			r.succeeded()
			return value, nil
		}

		if !slices.Contains(retryOn, err.Kind()) || !r.failed() {
			return zero, err
		}

		slog.Debug("retrying after failure", "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return zero, err
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func ExecuteVoid(ctx context.Context, r *Retrier, retryOn []neterr.Kind, op func(context.Context) *neterr.Error) *neterr.Error {
	_, err := ExecuteWithResult(ctx, r, retryOn, func(ctx context.Context) (struct{}, *neterr.Error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Remaining returns how many more failures the current window tolerates.
func (r *Retrier) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetIfWindowPassed()
	return max(r.maxAttempts-r.failures, 0)
}

// failed records a failed attempt and reports whether another one fits in
// the budget.
func (r *Retrier) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetIfWindowPassed()
	r.failures++
	r.lastFailure = time.Now()
	return r.failures < r.maxAttempts
}

func (r *Retrier) succeeded() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = 0
}

func (r *Retrier) resetIfWindowPassed() {
	if time.Since(r.lastFailure) > r.window {
		r.failures = 0
	}
}
