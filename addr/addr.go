// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

// Package addr parses peer addresses written as multiaddrs, for example
// /ip4/127.0.0.1/tcp/7379 or /dns4/peer.example.com/tcp/7379.
package addr

import (
	"fmt"
	"net"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

type ParseError struct {
	Input string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Input, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func Parse(s string) (ma.Multiaddr, *ParseError) {
	m, err := ma.NewMultiaddr(s)
	if err != nil {
		return nil, &ParseError{Input: s, Cause: err}
	}
	return m, nil
}

// DialArgs returns the arguments for net.Dial. Only TCP addresses are
// supported.
func DialArgs(m ma.Multiaddr) (network, address string, perr *ParseError) {
	network, address, err := manet.DialArgs(m)
	if err != nil {
		return "", "", &ParseError{Input: m.String(), Cause: err}
	}
	if !strings.HasPrefix(network, "tcp") {
		return "", "", &ParseError{Input: m.String(), Cause: fmt.Errorf("unsupported transport %q", network)}
	}
	return network, address, nil
}

// ParseDialArgs parses s and returns its dial arguments.
func ParseDialArgs(s string) (network, address string, perr *ParseError) {
	m, perr := Parse(s)
	if perr != nil {
		return "", "", perr
	}
	return DialArgs(m)
}

// FromNetAddr renders a listener or connection address as a multiaddr string.
func FromNetAddr(a net.Addr) (string, *ParseError) {
	m, err := manet.FromNetAddr(a)
	if err != nil {
		return "", &ParseError{Input: a.String(), Cause: err}
	}
	return m.String(), nil
}
