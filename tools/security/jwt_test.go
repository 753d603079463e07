package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	token, hash, exp, err := Generate(opts, "user-1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, HashToken(token), hash)
	require.WithinDuration(t, time.Now().Add(opts.TTL), exp, time.Minute)

	claims, err := Verify(opts, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject())
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	token, _, _, err := Generate(DefaultOptions([]byte("key-a")), "user-1", nil)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("key-b")), token)
	require.Error(t, err)
}

func TestVerifyRejectsTampered(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	token, _, _, err := Generate(opts, "user-1", nil)
	require.NoError(t, err)

	_, err = Verify(opts, token+"x")
	require.Error(t, err)
}

func TestUnsupportedAlg(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	opts.Alg = "RS256"
	_, _, _, err := Generate(opts, "user-1", nil)
	require.Error(t, err)
}
