// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

// Package peer tracks the live connections of a node, one per peer id.
package peer

import (
	"bytes"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type Conn interface {
	Close() error
}

type Manager[C Conn] struct {
	mu     sync.RWMutex
	peers  map[uuid.UUID]C
	closed bool
}

func NewManager[C Conn]() *Manager[C] {
	return &Manager[C]{
		peers: make(map[uuid.UUID]C),
	}
}

// Add registers conn for id. A peer can only have one connection.
func (m *Manager[C]) Add(id uuid.UUID, conn C) *Error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &Error{Kind: ErrShutdown, Peer: id}
	}
	if _, ok := m.peers[id]; ok {
		return &Error{Kind: ErrAlreadyConnected, Peer: id}
	}

	m.peers[id] = conn
	return nil
}

func (m *Manager[C]) Get(id uuid.UUID) (C, *Error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.peers[id]
	if !ok {
		var zero C
		return zero, &Error{Kind: ErrNotConnected, Peer: id}
	}
	return conn, nil
}

// Remove unregisters id and closes its connection.
func (m *Manager[C]) Remove(id uuid.UUID) *Error {
	m.mu.Lock()
	conn, ok := m.peers[id]
	delete(m.peers, id)
	m.mu.Unlock()

	if !ok {
		return &Error{Kind: ErrNotConnected, Peer: id}
	}
	if err := conn.Close(); err != nil {
		return &Error{Kind: ErrIO, Peer: id, Cause: err}
	}
	return nil
}

// Detach unregisters id only if it is still bound to conn, without closing
// it. It reports whether anything was removed.
func (m *Manager[C]) Detach(id uuid.UUID, conn C) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.peers[id]
	if !ok || any(cur) != any(conn) {
		return false
	}
	delete(m.peers, id)
	return true
}

// Peers returns the connected peer ids in a stable order.
func (m *Manager[C]) Peers() []uuid.UUID {
	m.mu.RLock()
	ids := make([]uuid.UUID, 0, len(m.peers))
	for id := range m.peers {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

func (m *Manager[C]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}

// Close closes every connection and refuses new ones. The first close
// failure is returned.
func (m *Manager[C]) Close() *Error {
	m.mu.Lock()
	peers := m.peers
	m.peers = make(map[uuid.UUID]C)
	m.closed = true
	m.mu.Unlock()

	var first *Error
	for id, conn := range peers {
		if err := conn.Close(); err != nil && first == nil {
			first = &Error{Kind: ErrIO, Peer: id, Cause: err}
		}
	}
	return first
}
