package verify

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	// arrange
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	author := uuid.New()
	stranger := uuid.New()
	msg := []byte("hello")
	sig := ed25519.Sign(priv, msg)

	keys := map[uuid.UUID]ed25519.PublicKey{author: pub}
	v := NewVerifier(keys)
	delete(keys, author)

	tests := []struct {
		name   string
		author uuid.UUID
		msg    []byte
		sig    []byte
		reason Reason
	}{
		{name: "valid", author: author, msg: msg, sig: sig},
		{name: "unknown author", author: stranger, msg: msg, sig: sig, reason: UnknownAuthor},
		{name: "short signature", author: author, msg: msg, sig: sig[:10], reason: InvalidSignatureLength},
		{name: "tampered message", author: author, msg: []byte("hellO"), sig: sig, reason: InvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			verr := v.Verify(tt.author, tt.msg, tt.sig)

			// assert
			if tt.reason == 0 {
				require.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			require.Equal(t, tt.reason, verr.Reason)
			require.Equal(t, tt.author, verr.Author)
			require.Contains(t, verr.Error(), tt.reason.String())
		})
	}

	require.True(t, v.Knows(author))
	require.False(t, v.Knows(stranger))
}
