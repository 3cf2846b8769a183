package sevennet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sevenDatabase/sevennet/neterr"
)

func fastRetrier(maxAttempts int, window time.Duration) *Retrier {
	r := NewRetrier(maxAttempts, window)
	r.backoff = time.Millisecond
	return r
}

func TestRetrierRetriesSelectedKinds(t *testing.T) {
	// arrange
	r := fastRetrier(3, time.Minute)
	attempts := 0
	op := func(context.Context) (int, *neterr.Error) {
		attempts++
		if attempts < 3 {
			return 0, neterr.FromKind(neterr.IoError)
		}
		return attempts, nil
	}

	// act
	v, err := ExecuteWithResult(context.Background(), r, []neterr.Kind{neterr.IoError}, op)

	// assert
	require.Nil(t, err)
	require.Equal(t, 3, v)
	require.Equal(t, 3, r.Remaining())
}

func TestRetrierGivesUp(t *testing.T) {
	r := fastRetrier(2, time.Minute)
	attempts := 0

	err := ExecuteVoid(context.Background(), r, []neterr.Kind{neterr.IoError}, func(context.Context) *neterr.Error {
		attempts++
		return neterr.FromKind(neterr.IoError).WithContextf("attempt %d", attempts)
	})

	require.NotNil(t, err)
	require.Equal(t, neterr.IoError, err.Kind())
	require.Equal(t, "attempt 2: io error", err.Error())
	require.Equal(t, 2, attempts)
	require.Equal(t, 0, r.Remaining())
}

func TestRetrierDoesNotRetryOtherKinds(t *testing.T) {
	r := fastRetrier(5, time.Minute)
	attempts := 0

	err := ExecuteVoid(context.Background(), r, []neterr.Kind{neterr.IoError}, func(context.Context) *neterr.Error {
		attempts++
		return neterr.FromKind(neterr.MultiaddrError)
	})

	require.Equal(t, neterr.MultiaddrError, err.Kind())
	require.Equal(t, 1, attempts)
	require.Equal(t, 5, r.Remaining())
}

func TestRetrierStopsWithContext(t *testing.T) {
	r := NewRetrier(5, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := ExecuteVoid(ctx, r, []neterr.Kind{neterr.TimedOut}, func(context.Context) *neterr.Error {
		attempts++
		cancel()
		return neterr.FromKind(neterr.TimedOut)
	})

	require.Equal(t, neterr.TimedOut, err.Kind())
	require.Equal(t, 1, attempts)
}

func TestRetrierWindowReset(t *testing.T) {
	r := fastRetrier(1, 20*time.Millisecond)

	require.False(t, r.failed())
	require.Equal(t, 0, r.Remaining())

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 1, r.Remaining())
}
