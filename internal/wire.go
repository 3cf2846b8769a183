// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package internal

import (
	"time"

	"github.com/sevenDatabase/sevennet/wire"
)

// Wire moves length-prefixed frames over a byte stream.
type Wire interface {
	Send([]byte) *wire.WireError
	Receive() ([]byte, *wire.WireError)
	SetDeadline(time.Time) error
	Close() error
}
