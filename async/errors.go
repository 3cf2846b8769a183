// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type SendFailure int

const (
	// Full means the buffer had no room and the send could not wait.
	Full SendFailure = iota + 1
	// Disconnected means one side of the channel was closed.
	Disconnected
	// Interrupted means the context ended while the send was blocked.
	Interrupted
)

func (f SendFailure) String() string {
	switch f {
	case Full:
		return "channel is full"
	case Disconnected:
		return "channel is closed"
	case Interrupted:
		return "send interrupted"
	default:
		return fmt.Sprintf("SendFailure(%d)", int(f))
	}
}

type SendError struct {
	Reason SendFailure
	Cause  error
}

func (e *SendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("send failed, %s: %v", e.Reason, e.Cause)
	}
	return "send failed, " + e.Reason.String()
}

func (e *SendError) Unwrap() error {
	return e.Cause
}

// CanceledError is returned by a one-shot receiver whose sender went away
// without a value.
type CanceledError struct {
	Cause error
}

func (e *CanceledError) Error() string {
	if e.Cause != nil {
		return "oneshot canceled: " + e.Cause.Error()
	}
	return "oneshot canceled"
}

func (e *CanceledError) Unwrap() error {
	return e.Cause
}

// ElapsedError reports that a wait ended before the operation finished,
// either because a deadline fired or because the waiting context was
// canceled. Cause is the context error; a nil Cause means a deadline.
type ElapsedError struct {
	After time.Duration
	Cause error
}

func (e *ElapsedError) Error() string {
	if e.Cause != nil && !errors.Is(e.Cause, context.DeadlineExceeded) {
		return "wait abandoned: " + e.Cause.Error()
	}
	if e.After > 0 {
		return fmt.Sprintf("deadline elapsed after %s", e.After)
	}
	return "deadline elapsed"
}

func (e *ElapsedError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return context.DeadlineExceeded
}
