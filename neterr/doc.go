// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

// Package neterr classifies the failures of the network collaborators (wire,
// codec, address parsing, channels, timers, signature verification and the
// peer manager) into a single error type carrying one Kind and the full
// causal chain.
//
// Failures are converted where they are first observed:
//
//	pw, werr := sevennet.DialPeerWire(ctx, maxSize, network, address)
//	if werr != nil {
//	    return neterr.Classify(werr).WithContext("dial " + address)
//	}
//
// Callers branch on the kind without knowing which collaborator failed:
//
//	switch kind, _ := neterr.KindOf(err); kind {
//	case neterr.TimedOut:
//	    // try again later
//	case neterr.NotConnected:
//	    // reconnect
//	}
//
// The package performs no I/O and no logging.
package neterr
