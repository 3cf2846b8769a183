// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package internal

import (
	"net"
	"time"

	"github.com/sevenDatabase/sevennet/wire"
)

// ProtobufTCPWire exchanges envelopes over a TCPWire.
type ProtobufTCPWire struct {
	tcpWire Wire
	remote  net.Addr
}

func NewProtobufTCPWire(maxMsgSize int, conn net.Conn) *ProtobufTCPWire {
	return &ProtobufTCPWire{
		tcpWire: NewTCPWire(maxMsgSize, conn),
		remote:  conn.RemoteAddr(),
	}
}

// Send returns a *wire.EncodeError or a *wire.WireError.
func (w *ProtobufTCPWire) Send(env *wire.Envelope) error {
	buffer, eerr := env.Marshal()
	if eerr != nil {
		return eerr
	}

	if werr := w.tcpWire.Send(buffer); werr != nil {
		return werr
	}
	return nil
}

// Receive returns a *wire.DecodeError or a *wire.WireError. A frame that
// does not decode closes the wire.
func (w *ProtobufTCPWire) Receive() (*wire.Envelope, error) {
	buffer, werr := w.tcpWire.Receive()
	if werr != nil {
		return nil, werr
	}

	env, derr := wire.UnmarshalEnvelope(buffer)
	if derr != nil {
		_ = w.tcpWire.Close()
		return nil, derr
	}

	return env, nil
}

func (w *ProtobufTCPWire) SetDeadline(t time.Time) error {
	return w.tcpWire.SetDeadline(t)
}

func (w *ProtobufTCPWire) RemoteAddr() net.Addr {
	return w.remote
}

func (w *ProtobufTCPWire) Close() error {
	return w.tcpWire.Close()
}
