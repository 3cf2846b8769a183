// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package neterr

import (
	"fmt"
	"log/slog"
)

// Kind is the category tag attached to every network error.
// The set of kinds is closed; the zero value is not a valid kind.
//
// Kind is an error, so %s and %v print its description. String returns the
// stable name, which is also what slog records for a Kind attribute.
type Kind int

const (
	IoError Kind = iota + 1
	SignatureError
	ProtobufParseError
	MultiaddrError
	ChannelSendError
	ChannelCanceled
	TimerError
	TimedOut
	UnknownTimerError
	PeerManagerError
	ParsingError
	NotConnected
)

var kindNames = [...]string{
	IoError:            "IoError",
	SignatureError:     "SignatureError",
	ProtobufParseError: "ProtobufParseError",
	MultiaddrError:     "MultiaddrError",
	ChannelSendError:   "ChannelSendError",
	ChannelCanceled:    "ChannelCanceled",
	TimerError:         "TimerError",
	TimedOut:           "TimedOut",
	UnknownTimerError:  "UnknownTimerError",
	PeerManagerError:   "PeerManagerError",
	ParsingError:       "ParsingError",
	NotConnected:       "NotConnected",
}

var kindDescriptions = [...]string{
	IoError:            "io error",
	SignatureError:     "invalid signature",
	ProtobufParseError: "error parsing protobuf message",
	MultiaddrError:     "failed to parse multiaddr",
	ChannelSendError:   "error sending on channel",
	ChannelCanceled:    "oneshot channel unexpectedly dropped",
	TimerError:         "error setting timeout",
	TimedOut:           "operation timed out",
	UnknownTimerError:  "unknown timer error",
	PeerManagerError:   "peer manager error",
	ParsingError:       "parsing error",
	NotConnected:       "peer not connected",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames)-1)
	for k := IoError; k <= NotConnected; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k Kind) valid() bool {
	return k >= IoError && k <= NotConnected
}

// String returns the stable name of the kind, e.g. "TimedOut".
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error returns the category description. A Kind is an error so that
// errors.Is(err, neterr.TimedOut) matches any error tagged TimedOut.
func (k Kind) Error() string {
	if !k.valid() {
		return fmt.Sprintf("unknown network error kind %d", int(k))
	}
	return kindDescriptions[k]
}

func (k Kind) LogValue() slog.Value {
	return slog.StringValue(k.String())
}
