package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
)

const (
	// KeySize is the length of private keys, public keys and shared
	// secrets on X25519.
	KeySize = 32

	gcmNonceSize = 12
)

var (
	// ErrInvalidKeyMaterial occurs when key bytes are not a valid scalar or
	// point for the channel curve. Fatal to the operation, not the connection.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrAuthenticationFailed indicates the GCM tag did not verify or the
	// nonce is malformed. The message must be rejected, never trusted.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// GeneratePrivateKey returns a fresh 32-byte X25519 private scalar.
func GeneratePrivateKey() ([]byte, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate channel key: %w", err)
	}
	return priv.Bytes(), nil
}

// DeriveSharedSecret performs X25519 Diffie-Hellman between the local private
// scalar and the remote public key. The 32-byte result is used directly as
// the AES-256-GCM key for the channel.
func DeriveSharedSecret(localPrivate, remotePublic []byte) ([]byte, error) {
	priv, err := ecdh.X25519().NewPrivateKey(localPrivate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	pub, err := ecdh.X25519().NewPublicKey(remotePublic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return secret, nil
}

// PublicFromPrivate returns the public key for the given private scalar.
func PublicFromPrivate(localPrivate []byte) ([]byte, error) {
	priv, err := ecdh.X25519().NewPrivateKey(localPrivate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return priv.PublicKey().Bytes(), nil
}

// Hash256 returns the SHA-256 digest of b. Used for sender fingerprints
// (sha256 of a public key), not for key derivation.
func Hash256(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// EncryptGCM seals plaintext with AES-256-GCM under key. A fresh random
// nonce is prepended to the output so the decrypting side is
// self-describing. No associated data.
func EncryptGCM(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptGCM opens a nonce-prefixed AES-256-GCM ciphertext. Returns
// ErrAuthenticationFailed when the tag does not verify or the input is too
// short to carry a nonce.
func DecryptGCM(key, data []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(data) < gcmNonceSize+aead.Overhead() {
		return nil, ErrAuthenticationFailed
	}
	plaintext, err := aead.Open(nil, data[:gcmNonceSize], data[gcmNonceSize:], nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrInvalidKeyMaterial, KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return cipher.NewGCM(block)
}
