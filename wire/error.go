// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package wire

import "fmt"

// ErrKind tells why a byte-stream operation on a wire failed.
type ErrKind int

const (
	NotEstablished ErrKind = 1
	Empty          ErrKind = 2
	Terminated     ErrKind = 3
	CorruptMessage ErrKind = 4
)

func (k ErrKind) String() string {
	switch k {
	case NotEstablished:
		return "not established"
	case Empty:
		return "empty"
	case Terminated:
		return "terminated"
	case CorruptMessage:
		return "corrupt message"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// WireError is a failure of the framed byte stream between two peers.
type WireError struct {
	Kind  ErrKind
	Cause error
}

func (e *WireError) Error() string {
	return fmt.Sprintf("wire %s: %v", e.Kind, e.Cause)
}

func (e *WireError) Unwrap() error {
	return e.Cause
}

// EncodeError is returned when a message cannot be serialized.
type EncodeError struct {
	Cause error
}

func (e *EncodeError) Error() string {
	return "encode message: " + e.Cause.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// DecodeError is returned when received bytes are not a valid message.
type DecodeError struct {
	// Field is the protobuf field number being read, 0 when unknown.
	Field int32
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Field != 0 {
		return fmt.Sprintf("decode message field %d: %v", e.Field, e.Cause)
	}
	return "decode message: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
