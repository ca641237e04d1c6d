package secrets

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeyLength is the secretbox key size in bytes
	KeyLength = 32

	nonceLength = 24
)

// ErrDecryptFailed is returned when the ciphertext cannot be opened,
// typically because the seal key changed.
var ErrDecryptFailed = errors.New("failed to decrypt sealed value")

// Sealer encrypts and decrypts small secrets (OAuth tokens) for storage.
// A zero-value Sealer (no key) passes data through unmodified, which keeps
// local development without a configured key working.
type Sealer struct {
	key   [KeyLength]byte
	keyed bool
}

// NewSealer creates a Sealer from a raw 32-byte key. A nil or empty key
// yields a pass-through Sealer.
func NewSealer(key []byte) (*Sealer, error) {
	s := &Sealer{}
	if len(key) == 0 {
		return s, nil
	}
	if len(key) != KeyLength {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", KeyLength, len(key))
	}
	copy(s.key[:], key)
	s.keyed = true
	return s, nil
}

// Seal encrypts plaintext with a random nonce prepended to the result.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	if !s.keyed {
		out := make([]byte, len(plaintext))
		copy(out, plaintext)
		return out, nil
	}

	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if !s.keyed {
		out := make([]byte, len(sealed))
		copy(out, sealed)
		return out, nil
	}

	if len(sealed) < nonceLength {
		return nil, ErrDecryptFailed
	}

	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])

	plaintext, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, &s.key)
	if !ok {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

// SealString is a convenience wrapper for string secrets.
func (s *Sealer) SealString(value string) ([]byte, error) {
	return s.Seal([]byte(value))
}

// OpenString is a convenience wrapper for string secrets.
func (s *Sealer) OpenString(sealed []byte) (string, error) {
	b, err := s.Open(sealed)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
