package neterr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenDatabase/sevennet/addr"
	"github.com/sevenDatabase/sevennet/async"
	"github.com/sevenDatabase/sevennet/peer"
	"github.com/sevenDatabase/sevennet/verify"
	"github.com/sevenDatabase/sevennet/wire"
)

type classifyCase struct {
	name     string
	native   error
	kind     Kind
	classify func() *Error
}

func newCase[E Native](name string, native E, kind Kind) classifyCase {
	return classifyCase{
		name:     name,
		native:   native,
		kind:     kind,
		classify: func() *Error { return Classify(native) },
	}
}

func classifyCases() []classifyCase {
	id := uuid.MustParse("6b0b3c5e-8f3a-4f57-9a53-3c1c1b0f2d11")
	return []classifyCase{
		newCase("wire", &wire.WireError{Kind: wire.Terminated, Cause: io.EOF}, IoError),
		newCase("encode", &wire.EncodeError{Cause: errors.New("invalid UTF-8")}, ProtobufParseError),
		newCase("decode", &wire.DecodeError{Field: 4, Cause: errors.New("unexpected EOF")}, ProtobufParseError),
		newCase("signature", &verify.Error{Reason: verify.InvalidSignature, Author: id}, SignatureError),
		newCase("multiaddr", &addr.ParseError{Input: "/ip4/x", Cause: errors.New("invalid value")}, MultiaddrError),
		newCase("channel send", &async.SendError{Reason: async.Full}, ChannelSendError),
		newCase("oneshot canceled", &async.CanceledError{}, ChannelCanceled),
		newCase("elapsed", &async.ElapsedError{After: time.Second}, TimedOut),
		newCase("wait abandoned", &async.ElapsedError{Cause: context.Canceled}, TimedOut),
		newCase("peer io", &peer.Error{Kind: peer.ErrIO, Peer: id, Cause: syscall.EPIPE}, IoError),
		newCase("peer not connected", &peer.Error{Kind: peer.ErrNotConnected, Peer: id}, NotConnected),
		newCase("peer already connected", &peer.Error{Kind: peer.ErrAlreadyConnected, Peer: id}, PeerManagerError),
		newCase("peer shutdown", &peer.Error{Kind: peer.ErrShutdown, Peer: id}, PeerManagerError),
	}
}

func TestClassify(t *testing.T) {
	for _, tt := range classifyCases() {
		t.Run(tt.name, func(t *testing.T) {
			// act
			err := tt.classify()

			// assert
			require.Equal(t, tt.kind, err.Kind())
			require.True(t, err.Root() == tt.native, "root cause %v, want %v", err.Root(), tt.native)
			require.ErrorIs(t, err, tt.kind)
			require.ErrorIs(t, err, tt.native)
			require.Contains(t, err.Error(), tt.kind.Error())
			require.Contains(t, err.Error(), tt.native.Error())
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for _, tt := range classifyCases() {
		for range 3 {
			require.Equal(t, tt.kind, tt.classify().Kind(), tt.name)
		}
	}
}

func TestClassifyDoesNotMatchOtherKinds(t *testing.T) {
	err := Classify(&async.CanceledError{})

	for _, k := range Kinds() {
		if k == ChannelCanceled {
			continue
		}
		require.False(t, errors.Is(err, k), "unexpected match with %s", k)
	}
}

func TestTagOf(t *testing.T) {
	for _, k := range Kinds() {
		require.Equal(t, k, FromKind(k).Kind())
		require.Equal(t, k, FromKind(k).WithContext("outer").Kind())
	}
}

func TestWithContext(t *testing.T) {
	// arrange
	native := &async.ElapsedError{}
	base := Classify(native)

	// act
	outer := base.WithContext("await response").WithContextf("request %d", 3)

	// assert
	require.Equal(t, TimedOut, outer.Kind())
	require.Equal(t, "request 3: await response: operation timed out: deadline elapsed", outer.Error())
	require.Equal(t, "operation timed out: deadline elapsed", base.Error())
	require.ErrorIs(t, outer, TimedOut)
	require.True(t, outer.Root() == error(native))

	var unwrapped *Error
	require.ErrorAs(t, errors.Unwrap(outer), &unwrapped)
	require.Equal(t, "await response: operation timed out: deadline elapsed", unwrapped.Error())
}

func TestWithContextIsSafeToShare(t *testing.T) {
	base := Classify(&peer.Error{Kind: peer.ErrNotConnected})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := base.WithContextf("worker %d", i)
			assert.Equal(t, NotConnected, err.Kind())
			assert.Contains(t, err.Error(), fmt.Sprintf("worker %d: ", i))
		}()
	}
	wg.Wait()

	require.NotContains(t, base.Error(), "worker")
}

func TestFromKind(t *testing.T) {
	err := FromKind(TimedOut)

	require.Equal(t, TimedOut, err.Kind())
	require.Nil(t, err.Unwrap())
	require.Nil(t, err.Root())
	require.Equal(t, "operation timed out", err.Error())
	require.ErrorIs(t, err, TimedOut)
}

func TestWrap(t *testing.T) {
	cause := errors.New("invalid UUID length: 3")

	err := Wrap(ParsingError, cause)
	require.Equal(t, ParsingError, err.Kind())
	require.Equal(t, "parsing error: invalid UUID length: 3", err.Error())
	require.True(t, err.Root() == cause)

	require.Equal(t, FromKind(ParsingError), Wrap(ParsingError, nil))
}

func TestWrapKeepsExistingKind(t *testing.T) {
	tagged := Classify(&async.ElapsedError{})

	require.Same(t, tagged, Wrap(ParsingError, tagged))

	wrapped := Wrap(ParsingError, fmt.Errorf("handshake: %w", tagged))
	require.Equal(t, TimedOut, wrapped.Kind())
	require.Equal(t, "handshake: operation timed out: deadline elapsed", wrapped.Error())
}

func TestFromIO(t *testing.T) {
	require.Nil(t, FromIO(nil))

	err := FromIO(io.ErrUnexpectedEOF)
	require.Equal(t, IoError, err.Kind())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		ok   bool
	}{
		{
			name: "nil",
			err:  nil,
			ok:   false,
		},
		{
			name: "wrapped native",
			err:  fmt.Errorf("send hello: %w", &wire.WireError{Kind: wire.Terminated, Cause: io.EOF}),
			kind: IoError,
			ok:   true,
		},
		{
			name: "wrapped classified",
			err:  fmt.Errorf("lookup: %w", Classify(&peer.Error{Kind: peer.ErrNotConnected})),
			kind: NotConnected,
			ok:   true,
		},
		{
			name: "native wrapping a deadline",
			err:  &async.ElapsedError{},
			kind: TimedOut,
			ok:   true,
		},
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			kind: TimedOut,
			ok:   true,
		},
		{
			name: "socket deadline",
			err:  &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded},
			kind: TimedOut,
			ok:   true,
		},
		{
			name: "refused connection",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			kind: IoError,
			ok:   true,
		},
		{
			name: "closed connection",
			err:  fmt.Errorf("write: %w", net.ErrClosed),
			kind: IoError,
			ok:   true,
		},
		{
			name: "unrelated",
			err:  errors.New("boom"),
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(tt.err)

			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				require.Nil(t, got)
				return
			}
			require.Equal(t, tt.kind, got.Kind())
			require.ErrorIs(t, got, tt.err)
			require.Contains(t, got.Error(), tt.err.Error())
		})
	}
}

func TestConvertReturnsErrorUnchanged(t *testing.T) {
	err := FromKind(NotConnected).WithContext("send")

	got, ok := Convert(err)

	require.True(t, ok)
	require.Same(t, err, got)
}

func TestConvertKeepsOuterText(t *testing.T) {
	inner := Classify(&peer.Error{Kind: peer.ErrNotConnected})
	err := fmt.Errorf("lookup: %w", inner)

	got, ok := Convert(err)

	require.True(t, ok)
	require.Equal(t, err.Error(), got.Error())
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("outer: %w", FromKind(ChannelSendError)))
	require.True(t, ok)
	require.Equal(t, ChannelSendError, kind)

	_, ok = KindOf(errors.New("plain"))
	require.False(t, ok)

	_, ok = KindOf(nil)
	require.False(t, ok)
}

func TestFormat(t *testing.T) {
	err := Classify(&addr.ParseError{Input: "bad", Cause: errors.New("no protocol")}).WithContext("dial")
	text := `dial: failed to parse multiaddr: invalid address "bad": no protocol`

	require.Equal(t, text, fmt.Sprintf("%v", err))
	require.Equal(t, text, fmt.Sprintf("%s", err))
	require.Equal(t, fmt.Sprintf("%q", text), fmt.Sprintf("%q", err))

	want := "MultiaddrError: " + text + "\n\nCaused by:" +
		"\n    0: dial" +
		"\n    1: failed to parse multiaddr" +
		"\n    2: invalid address \"bad\": no protocol" +
		"\n    3: no protocol"
	require.Equal(t, want, fmt.Sprintf("%+v", err))
}

func TestFormatWithoutCause(t *testing.T) {
	require.Equal(t, "TimedOut: operation timed out", fmt.Sprintf("%+v", FromKind(TimedOut)))
}

func TestLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("request failed", "error", FromKind(TimedOut).WithContext("await"))

	require.Contains(t, buf.String(), `"error":{"kind":"TimedOut","error":"await: operation timed out"}`)
}
