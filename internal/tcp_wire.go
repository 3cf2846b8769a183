// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package internal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sevenDatabase/sevennet/wire"
)

const prefixSize = 4 // bytes

const (
	maxReadRetries         = 5
	maxBackoffRetries      = 5
	maxPartialWriteRetries = 10
	initialBackoff         = 5 * time.Millisecond
)

var errClosedWire = errors.New("trying to use closed wire")

type Status int32

const (
	Open   Status = 1
	Closed Status = 2
)

type TCPWire struct {
	status     atomic.Int32
	closeOnce  sync.Once
	closeErr   error
	maxMsgSize int
	readMu     sync.Mutex
	reader     *bufio.Reader
	writeMu    sync.Mutex
	conn       net.Conn
}

func NewTCPWire(maxMsgSize int, conn net.Conn) *TCPWire {
	w := &TCPWire{
		maxMsgSize: maxMsgSize,
		conn:       conn,
		reader:     bufio.NewReader(conn),
	}
	w.status.Store(int32(Open))
	return w
}

func (w *TCPWire) Status() Status {
	return Status(w.status.Load())
}

func (w *TCPWire) Send(msg []byte) *wire.WireError {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if w.Status() == Closed {
		return &wire.WireError{Kind: wire.Terminated, Cause: errClosedWire}
	}

	size := len(msg)
	if size == 0 || size > w.maxMsgSize {
		return &wire.WireError{
			Kind:  wire.CorruptMessage,
			Cause: fmt.Errorf("invalid message size: %d bytes (max: %d)", size, w.maxMsgSize),
		}
	}

	buffer := make([]byte, prefixSize+size)
	binary.BigEndian.PutUint32(buffer[:prefixSize], uint32(size))
	copy(buffer[prefixSize:], msg)

	return w.write(buffer)
}

// Receive reads one frame. A clean end of stream between frames is reported
// as wire.Empty and leaves the wire open; every other failure closes it.
func (w *TCPWire) Receive() ([]byte, *wire.WireError) {
	w.readMu.Lock()
	defer w.readMu.Unlock()

	if w.Status() == Closed {
		return nil, &wire.WireError{Kind: wire.Terminated, Cause: errClosedWire}
	}

	header := make([]byte, prefixSize)
	if err := w.readFull(header, false); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &wire.WireError{Kind: wire.Empty, Cause: err}
		}
		_ = w.Close()
		return nil, &wire.WireError{Kind: wire.Terminated, Cause: err}
	}

	size := binary.BigEndian.Uint32(header)
	if size == 0 || size > uint32(w.maxMsgSize) {
		_ = w.Close()
		return nil, &wire.WireError{
			Kind:  wire.CorruptMessage,
			Cause: fmt.Errorf("invalid message size: %d bytes (max: %d)", size, w.maxMsgSize),
		}
	}

	buffer := make([]byte, size)
	if err := w.readFull(buffer, true); err != nil {
		_ = w.Close()
		if truncated(err) {
			// the prefix promised bytes that never came
			return nil, &wire.WireError{Kind: wire.CorruptMessage, Cause: err}
		}
		return nil, &wire.WireError{Kind: wire.Terminated, Cause: err}
	}

	return buffer, nil
}

func (w *TCPWire) SetDeadline(t time.Time) error {
	return w.conn.SetDeadline(t)
}

func (w *TCPWire) RemoteAddr() net.Addr {
	return w.conn.RemoteAddr()
}

func (w *TCPWire) Close() error {
	w.closeOnce.Do(func() {
		w.status.Store(int32(Closed))
		if err := w.conn.Close(); err != nil {
			slog.Warn("error closing network connection", "error", err)
			w.closeErr = err
		}
	})
	return w.closeErr
}

// readFull fills buf, retrying with exponential backoff on temporary
// failures. retryEOF also retries a bare EOF, which a peer may produce in the
// middle of a partially written frame.
func (w *TCPWire) readFull(buf []byte, retryEOF bool) error {
	delay := initialBackoff
	read := 0

	var lastErr error
	for attempt := 0; attempt < maxReadRetries; attempt++ {
		n, err := io.ReadFull(w.reader, buf[read:])
		read += n
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryable(err) && !(retryEOF && truncated(err)) {
			break
		}

		time.Sleep(delay)
		delay *= 2
	}

	return lastErr
}

func (w *TCPWire) write(buffer []byte) *wire.WireError {
	var written, partialWrites, backoffs int
	delay := initialBackoff

	for written < len(buffer) {
		n, err := w.conn.Write(buffer[written:])
		written += n

		switch {
		case err == nil || errors.Is(err, io.ErrShortWrite):
			if written == len(buffer) {
				return nil
			}
			if partialWrites >= maxPartialWriteRetries {
				_ = w.Close()
				return &wire.WireError{
					Kind:  wire.Terminated,
					Cause: fmt.Errorf("max partial write retries reached after %d of %d bytes", written, len(buffer)),
				}
			}
			partialWrites++

		case retryable(err):
			if backoffs >= maxBackoffRetries {
				_ = w.Close()
				return &wire.WireError{
					Kind:  wire.Terminated,
					Cause: fmt.Errorf("max backoff retries reached: %w", err),
				}
			}
			backoffs++
			time.Sleep(delay)
			delay *= 2

		default:
			_ = w.Close()
			return &wire.WireError{Kind: wire.Terminated, Cause: err}
		}
	}

	return nil
}

func truncated(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// retryable reports transient socket failures. Deadline expiry is never
// retried: deadlines are set on purpose by the caller.
func retryable(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && (opErr.Timeout() || opErr.Temporary()) // nolint:staticcheck
}
