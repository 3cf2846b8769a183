// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package sevennet

import (
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultMaxMessageSize = 4 * 1024 * 1024 // 4 MB
	defaultDialTimeout    = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultInboundBuffer  = 64
	defaultDialRetries    = 3
	defaultRetryWindow    = 5 * time.Second
)

type Option func(*Network)

// WithID sets the peer id announced in handshakes. A random id is used
// otherwise.
func WithID(id uuid.UUID) Option {
	return func(n *Network) {
		n.id = id
	}
}

// WithPrivateKey sets the key used to sign outgoing envelopes. A fresh key
// is generated otherwise.
func WithPrivateKey(key ed25519.PrivateKey) Option {
	return func(n *Network) {
		n.privateKey = key
	}
}

// WithTrustedPeer accepts envelopes from id signed with key.
func WithTrustedPeer(id uuid.UUID, key ed25519.PublicKey) Option {
	return func(n *Network) {
		n.trusted[id] = key
	}
}

func WithMaxMessageSize(size int) Option {
	return func(n *Network) {
		n.maxMsgSize = size
	}
}

// WithDialTimeout bounds connection establishment and the handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(n *Network) {
		n.dialTimeout = d
	}
}

// WithRequestTimeout bounds the wait for a response in Request.
func WithRequestTimeout(d time.Duration) Option {
	return func(n *Network) {
		n.requestTimeout = d
	}
}

func WithInboundBuffer(size int) Option {
	return func(n *Network) {
		n.inboundSize = size
	}
}

// WithDialRetries caps the dial attempts made within window when a
// connection cannot be established.
func WithDialRetries(retries int, window time.Duration) Option {
	return func(n *Network) {
		n.dialRetrier = NewRetrier(retries, window)
	}
}

// WithRegisterer exports metrics on reg. A private registry is used
// otherwise.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(n *Network) {
		n.registerer = reg
	}
}
