// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package neterr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/sevenDatabase/sevennet/addr"
	"github.com/sevenDatabase/sevennet/async"
	"github.com/sevenDatabase/sevennet/peer"
	"github.com/sevenDatabase/sevennet/verify"
	"github.com/sevenDatabase/sevennet/wire"
)

// Native is the set of collaborator error types with a conversion rule.
// Passing any other type to Classify does not compile.
type Native interface {
	*wire.WireError |
		*wire.EncodeError |
		*wire.DecodeError |
		*verify.Error |
		*addr.ParseError |
		*async.SendError |
		*async.CanceledError |
		*async.ElapsedError |
		*peer.Error
	error
}

// Classify wraps a collaborator failure, tagging it with the kind from the
// conversion table and keeping it as the root cause. err must not be nil.
func Classify[E Native](err E) *Error {
	kind, ok := rule(err)
	if !ok {
		// unreachable while rule has a case for every member of Native
		panic(fmt.Sprintf("neterr: no conversion rule for %T", err))
	}
	return &Error{kind: kind, tagged: true, cause: err}
}

// rule is the conversion table. Each case matches one concrete type, so the
// order of the cases does not matter.
func rule(err error) (Kind, bool) {
	switch e := err.(type) {
	case *wire.WireError:
		return IoError, true
	case *wire.EncodeError, *wire.DecodeError:
		return ProtobufParseError, true
	case *verify.Error:
		return SignatureError, true
	case *addr.ParseError:
		return MultiaddrError, true
	case *async.SendError:
		return ChannelSendError, true
	case *async.CanceledError:
		return ChannelCanceled, true
	case *async.ElapsedError:
		return TimedOut, true
	case *peer.Error:
		return peerManagerKind(e), true
	}
	return 0, false
}

func peerManagerKind(e *peer.Error) Kind {
	if e == nil {
		return PeerManagerError
	}
	switch e.Kind {
	case peer.ErrIO:
		return IoError
	case peer.ErrNotConnected:
		return NotConnected
	default:
		return PeerManagerError
	}
}

// FromKind builds an error from a bare kind, with no underlying cause.
func FromKind(kind Kind) *Error {
	return &Error{kind: kind, tagged: true}
}

// Wrap tags cause with kind explicitly. It is meant for failures outside the
// conversion table, such as malformed peer identifiers. If cause already
// carries a kind, that kind is kept.
func Wrap(kind Kind, cause error) *Error {
	if cause == nil {
		return FromKind(kind)
	}
	if ne, ok := adopt(cause); ok {
		return ne
	}
	return &Error{kind: kind, tagged: true, cause: cause}
}

// FromIO classifies a raw byte-stream failure returned by io, net or os.
// Returns nil if err is nil.
func FromIO(err error) *Error {
	if err == nil {
		return nil
	}
	return Wrap(IoError, err)
}

// Convert classifies an error held as a plain error value. The outermost link
// of the chain that is an *Error or a Native type decides the kind; the whole
// err is kept as cause. Deadline signals map to TimedOut and standard library
// I/O failures to IoError. Convert reports false for anything else.
func Convert(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	if ne, ok := err.(*Error); ok {
		return ne, true
	}
	for link := err; link != nil; link = errors.Unwrap(link) {
		if ne, ok := link.(*Error); ok {
			return &Error{kind: ne.kind, cause: err}, true
		}
		if kind, ok := rule(link); ok {
			return &Error{kind: kind, tagged: true, cause: err}, true
		}
	}
	switch {
	case isDeadline(err):
		return &Error{kind: TimedOut, tagged: true, cause: err}, true
	case isIO(err):
		return &Error{kind: IoError, tagged: true, cause: err}, true
	}
	return nil, false
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.kind, true
	}
	return 0, false
}

// adopt returns err itself when it is an *Error, or a node keeping the kind of
// an *Error found deeper in the chain.
func adopt(err error) (*Error, bool) {
	if ne, ok := err.(*Error); ok {
		return ne, true
	}
	var ne *Error
	if errors.As(err, &ne) {
		return &Error{kind: ne.kind, cause: err}, true
	}
	return nil, false
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)
}

func isIO(err error) bool {
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrShortWrite) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}

	var opErr *net.OpError
	var pathErr *os.PathError
	var sysErr *os.SyscallError
	var errno syscall.Errno
	return errors.As(err, &opErr) ||
		errors.As(err, &pathErr) ||
		errors.As(err, &sysErr) ||
		errors.As(err, &errno)
}
