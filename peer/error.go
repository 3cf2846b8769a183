// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package peer

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrKind int

const (
	ErrIO ErrKind = iota + 1
	ErrNotConnected
	ErrAlreadyConnected
	ErrShutdown
)

func (k ErrKind) String() string {
	switch k {
	case ErrIO:
		return "io failure"
	case ErrNotConnected:
		return "not connected"
	case ErrAlreadyConnected:
		return "already connected"
	case ErrShutdown:
		return "manager shut down"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a connection manager failure. Kind selects the variant; Cause is
// only set for ErrIO.
type Error struct {
	Kind  ErrKind
	Peer  uuid.UUID
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("peer %s: %s: %v", e.Peer, e.Kind, e.Cause)
	}
	return fmt.Sprintf("peer %s: %s", e.Peer, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
