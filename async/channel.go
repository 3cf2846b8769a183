// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package async

import (
	"context"
	"sync"
)

type channel[T any] struct {
	values chan T
	closed chan struct{}
	once   sync.Once
}

func (c *channel[T]) close() {
	c.once.Do(func() {
		close(c.closed)
	})
}

// Sender is the producing side of a buffered channel. It may be shared by
// any number of goroutines.
type Sender[T any] struct {
	c *channel[T]
}

type Receiver[T any] struct {
	c *channel[T]
}

// Channel creates a channel buffering up to size values. Closing either side
// makes later sends fail with Disconnected; values already buffered can still
// be received.
func Channel[T any](size int) (*Sender[T], *Receiver[T]) {
	c := &channel[T]{
		values: make(chan T, size),
		closed: make(chan struct{}),
	}
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// Send blocks until v is buffered, the channel is closed or ctx ends.
func (s *Sender[T]) Send(ctx context.Context, v T) *SendError {
	select {
	case <-s.c.closed:
		return &SendError{Reason: Disconnected}
	default:
	}

	select {
	case s.c.values <- v:
		return nil
	case <-s.c.closed:
		return &SendError{Reason: Disconnected}
	case <-ctx.Done():
		return &SendError{Reason: Interrupted, Cause: ctx.Err()}
	}
}

// TrySend buffers v without blocking.
func (s *Sender[T]) TrySend(v T) *SendError {
	select {
	case <-s.c.closed:
		return &SendError{Reason: Disconnected}
	default:
	}

	select {
	case s.c.values <- v:
		return nil
	default:
		return &SendError{Reason: Full}
	}
}

func (s *Sender[T]) Close() {
	s.c.close()
}

// Recv returns the next value. It reports false once the channel is closed
// and drained, or when ctx ends.
func (r *Receiver[T]) Recv(ctx context.Context) (T, bool) {
	var zero T

	select {
	case v := <-r.c.values:
		return v, true
	default:
	}

	select {
	case v := <-r.c.values:
		return v, true
	case <-r.c.closed:
		select {
		case v := <-r.c.values:
			return v, true
		default:
			return zero, false
		}
	case <-ctx.Done():
		return zero, false
	}
}

func (r *Receiver[T]) Close() {
	r.c.close()
}
