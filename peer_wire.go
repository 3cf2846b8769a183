// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package sevennet

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sevenDatabase/sevennet/internal"
	"github.com/sevenDatabase/sevennet/wire"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mock/conn.go -package=mock net Conn

const keepAlivePeriod = 30 * time.Second

// PeerWire carries signed envelopes to and from one remote peer.
type PeerWire struct {
	*internal.ProtobufTCPWire
}

func DialPeerWire(ctx context.Context, maxMsgSize int, network, address string) (*PeerWire, *wire.WireError) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, &wire.WireError{Kind: wire.NotEstablished, Cause: err}
	}

	return NewPeerWire(maxMsgSize, conn)
}

// NewPeerWire wraps an established connection. TCP connections get
// TCP_NODELAY and keepalives; on failure the connection is closed.
func NewPeerWire(maxMsgSize int, conn net.Conn) (*PeerWire, *wire.WireError) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, &wire.WireError{
				Kind:  wire.NotEstablished,
				Cause: fmt.Errorf("failed to set TCP_NODELAY: %w", err),
			}
		}
		if err := tcpConn.SetKeepAlive(true); err != nil {
			_ = conn.Close()
			return nil, &wire.WireError{
				Kind:  wire.NotEstablished,
				Cause: fmt.Errorf("failed to set keepalive: %w", err),
			}
		}
		if err := tcpConn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			_ = conn.Close()
			return nil, &wire.WireError{
				Kind:  wire.NotEstablished,
				Cause: fmt.Errorf("failed to set keepalive period: %w", err),
			}
		}
	}

	return &PeerWire{
		ProtobufTCPWire: internal.NewProtobufTCPWire(maxMsgSize, conn),
	}, nil
}
