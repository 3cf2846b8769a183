package addr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDialArgs(t *testing.T) {
	tests := []struct {
		input   string
		network string
		address string
	}{
		{input: "/ip4/127.0.0.1/tcp/7379", network: "tcp4", address: "127.0.0.1:7379"},
		{input: "/ip6/::1/tcp/7379", network: "tcp6", address: "[::1]:7379"},
		{input: "/dns4/peer.example.com/tcp/7379", network: "tcp4", address: "peer.example.com:7379"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			network, address, perr := ParseDialArgs(tt.input)

			require.Nil(t, perr)
			require.Equal(t, tt.network, network)
			require.Equal(t, tt.address, address)
		})
	}
}

func TestParseDialArgsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not a multiaddr", input: "127.0.0.1:7379"},
		{name: "unknown protocol", input: "/ip4/127.0.0.1/carrier-pigeon/1"},
		{name: "bad ip", input: "/ip4/300.0.0.1/tcp/7379"},
		{name: "udp", input: "/ip4/127.0.0.1/udp/7379"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, perr := ParseDialArgs(tt.input)

			require.NotNil(t, perr)
			require.NotNil(t, perr.Unwrap())
			require.Contains(t, perr.Error(), "invalid address")
		})
	}
}

func TestFromNetAddr(t *testing.T) {
	s, perr := FromNetAddr(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7379})
	require.Nil(t, perr)
	require.Equal(t, "/ip4/127.0.0.1/tcp/7379", s)

	_, perr = FromNetAddr(&net.UnixAddr{Name: "/tmp/sock", Net: "unixgram"})
	require.NotNil(t, perr)
}
