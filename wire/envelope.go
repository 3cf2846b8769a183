// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

type MessageType int32

const (
	TypeHello    MessageType = 1
	TypeMessage  MessageType = 2
	TypeRequest  MessageType = 3
	TypeResponse MessageType = 4
)

func (t MessageType) valid() bool {
	return t >= TypeHello && t <= TypeResponse
}

const (
	fieldType      protowire.Number = 1
	fieldRequestID protowire.Number = 2
	fieldFrom      protowire.Number = 3
	fieldBody      protowire.Number = 4
	fieldSignature protowire.Number = 5
)

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// Envelope is the frame exchanged between peers. From holds the raw sender
// id; it is interpreted by the receiver.
type Envelope struct {
	Type      MessageType
	RequestID uint64
	From      []byte
	Body      *anypb.Any
	Signature []byte
}

// NewBody packs msg so it can travel in an envelope.
func NewBody(msg proto.Message) (*anypb.Any, *EncodeError) {
	body, err := anypb.New(msg)
	if err != nil {
		return nil, &EncodeError{Cause: err}
	}
	return body, nil
}

// UnmarshalBody unpacks the envelope body into dst.
func (e *Envelope) UnmarshalBody(dst proto.Message) *DecodeError {
	if e.Body == nil {
		return &DecodeError{Field: int32(fieldBody), Cause: errors.New("envelope has no body")}
	}
	if err := e.Body.UnmarshalTo(dst); err != nil {
		return &DecodeError{Field: int32(fieldBody), Cause: err}
	}
	return nil
}

// SigningBytes is the deterministic encoding of every field but the signature.
func (e *Envelope) SigningBytes() ([]byte, *EncodeError) {
	return e.appendFields(nil, false)
}

func (e *Envelope) Marshal() ([]byte, *EncodeError) {
	return e.appendFields(nil, true)
}

func (e *Envelope) appendFields(b []byte, withSignature bool) ([]byte, *EncodeError) {
	if !e.Type.valid() {
		return nil, &EncodeError{Cause: fmt.Errorf("unknown message type %d", e.Type)}
	}

	b = protowire.AppendTag(b, fieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Type))

	if e.RequestID != 0 {
		b = protowire.AppendTag(b, fieldRequestID, protowire.VarintType)
		b = protowire.AppendVarint(b, e.RequestID)
	}

	b = protowire.AppendTag(b, fieldFrom, protowire.BytesType)
	b = protowire.AppendBytes(b, e.From)

	if e.Body != nil {
		body, err := marshalOptions.Marshal(e.Body)
		if err != nil {
			return nil, &EncodeError{Cause: err}
		}
		b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
		b = protowire.AppendBytes(b, body)
	}

	if withSignature && len(e.Signature) > 0 {
		b = protowire.AppendTag(b, fieldSignature, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Signature)
	}

	return b, nil
}

// UnmarshalEnvelope decodes an envelope. Unknown fields are skipped.
func UnmarshalEnvelope(b []byte) (*Envelope, *DecodeError) {
	env := &Envelope{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, &DecodeError{Cause: protowire.ParseError(n)}
		}
		b = b[n:]

		switch {
		case num == fieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, &DecodeError{Field: int32(num), Cause: protowire.ParseError(n)}
			}
			if v > math.MaxInt32 {
				return nil, &DecodeError{Field: int32(num), Cause: fmt.Errorf("message type %d out of range", v)}
			}
			env.Type = MessageType(v)
			b = b[n:]

		case num == fieldRequestID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, &DecodeError{Field: int32(num), Cause: protowire.ParseError(n)}
			}
			env.RequestID = v
			b = b[n:]

		case num == fieldFrom && typ == protowire.BytesType,
			num == fieldSignature && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, &DecodeError{Field: int32(num), Cause: protowire.ParseError(n)}
			}
			if num == fieldFrom {
				env.From = append([]byte(nil), v...)
			} else {
				env.Signature = append([]byte(nil), v...)
			}
			b = b[n:]

		case num == fieldBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, &DecodeError{Field: int32(num), Cause: protowire.ParseError(n)}
			}
			body := &anypb.Any{}
			if err := proto.Unmarshal(v, body); err != nil {
				return nil, &DecodeError{Field: int32(num), Cause: err}
			}
			env.Body = body
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, &DecodeError{Field: int32(num), Cause: protowire.ParseError(n)}
			}
			b = b[n:]
		}
	}

	if !env.Type.valid() {
		return nil, &DecodeError{Field: int32(fieldType), Cause: fmt.Errorf("unknown message type %d", env.Type)}
	}

	return env, nil
}
