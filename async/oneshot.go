// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package async

import (
	"context"
	"sync"
)

type oneshot[T any] struct {
	value    chan T
	canceled chan struct{}
	once     sync.Once
}

type OneshotSender[T any] struct {
	o *oneshot[T]
}

type OneshotReceiver[T any] struct {
	o *oneshot[T]
}

// Oneshot creates a slot that carries at most one value.
func Oneshot[T any]() (*OneshotSender[T], *OneshotReceiver[T]) {
	o := &oneshot[T]{
		value:    make(chan T, 1),
		canceled: make(chan struct{}),
	}
	return &OneshotSender[T]{o: o}, &OneshotReceiver[T]{o: o}
}

// Send fills the slot. It reports false if the slot was already filled or
// canceled.
func (s *OneshotSender[T]) Send(v T) bool {
	sent := false
	s.o.once.Do(func() {
		s.o.value <- v
		sent = true
	})
	return sent
}

// Cancel drops the sender without a value. It is a no-op after Send.
func (s *OneshotSender[T]) Cancel() {
	s.o.once.Do(func() {
		close(s.o.canceled)
	})
}

// Recv waits for the value. It returns a *CanceledError when the sender was
// canceled and an *ElapsedError when ctx ended first.
func (r *OneshotReceiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	select {
	case v := <-r.o.value:
		return v, nil
	case <-r.o.canceled:
		return zero, &CanceledError{}
	case <-ctx.Done():
		return zero, &ElapsedError{Cause: ctx.Err()}
	}
}
