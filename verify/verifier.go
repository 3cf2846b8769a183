// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

// Package verify checks ed25519 signatures of messages sent by known peers.
package verify

import (
	"crypto/ed25519"
	"fmt"

	"github.com/google/uuid"
)

type Reason int

const (
	UnknownAuthor Reason = iota + 1
	InvalidSignatureLength
	InvalidSignature
)

func (r Reason) String() string {
	switch r {
	case UnknownAuthor:
		return "unknown author"
	case InvalidSignatureLength:
		return "invalid signature length"
	case InvalidSignature:
		return "signature does not match"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

type Error struct {
	Reason Reason
	Author uuid.UUID
}

func (e *Error) Error() string {
	return fmt.Sprintf("verify message from %s: %s", e.Author, e.Reason)
}

// Verifier holds the public keys of trusted peers. It is immutable and safe
// for concurrent use.
type Verifier struct {
	keys map[uuid.UUID]ed25519.PublicKey
}

func NewVerifier(keys map[uuid.UUID]ed25519.PublicKey) *Verifier {
	copied := make(map[uuid.UUID]ed25519.PublicKey, len(keys))
	for id, key := range keys {
		copied[id] = append(ed25519.PublicKey(nil), key...)
	}
	return &Verifier{keys: copied}
}

func (v *Verifier) Knows(author uuid.UUID) bool {
	_, ok := v.keys[author]
	return ok
}

func (v *Verifier) Verify(author uuid.UUID, msg, sig []byte) *Error {
	key, ok := v.keys[author]
	if !ok {
		return &Error{Reason: UnknownAuthor, Author: author}
	}
	if len(sig) != ed25519.SignatureSize {
		return &Error{Reason: InvalidSignatureLength, Author: author}
	}
	if !ed25519.Verify(key, msg, sig) {
		return &Error{Reason: InvalidSignature, Author: author}
	}
	return nil
}
