package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, KeyLength)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return key
}

func TestSealer_RoundTrip(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	sealed, err := sealer.SealString("xoxe.xoxp-1-token")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "xoxp", "Ciphertext must not contain plaintext")

	opened, err := sealer.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "xoxe.xoxp-1-token", opened)
}

func TestSealer_NonceVariation(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	a, err := sealer.SealString("same-value")
	require.NoError(t, err)
	b, err := sealer.SealString("same-value")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "Sealing twice must produce different ciphertexts")
}

func TestSealer_WrongKey(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	otherKey := testKey()
	otherKey[0] ^= 0xFF
	other, err := NewSealer(otherKey)
	require.NoError(t, err)

	sealed, err := sealer.SealString("secret")
	require.NoError(t, err)

	_, err = other.OpenString(sealed)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestSealer_Passthrough(t *testing.T) {
	sealer, err := NewSealer(nil)
	require.NoError(t, err)

	sealed, err := sealer.SealString("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(sealed))

	opened, err := sealer.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "plain", opened)
}

func TestNewSealer_BadKeyLength(t *testing.T) {
	_, err := NewSealer([]byte("too-short"))
	assert.Error(t, err)
}

func TestSealer_OpenTruncated(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	_, err = sealer.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrDecryptFailed)
}
