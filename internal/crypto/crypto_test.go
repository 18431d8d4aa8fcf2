package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestSharedSecretSymmetry(t *testing.T) {
	alicePriv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate alice key: %v", err)
	}
	bobPriv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate bob key: %v", err)
	}

	alicePub, err := PublicFromPrivate(alicePriv)
	if err != nil {
		t.Fatalf("alice public: %v", err)
	}
	bobPub, err := PublicFromPrivate(bobPriv)
	if err != nil {
		t.Fatalf("bob public: %v", err)
	}

	ab, err := DeriveSharedSecret(alicePriv, bobPub)
	if err != nil {
		t.Fatalf("derive a->b: %v", err)
	}
	ba, err := DeriveSharedSecret(bobPriv, alicePub)
	if err != nil {
		t.Fatalf("derive b->a: %v", err)
	}

	if !bytes.Equal(ab, ba) {
		t.Fatalf("shared secrets differ: %x vs %x", ab, ba)
	}
	if len(ab) != KeySize {
		t.Fatalf("expected %d byte secret, got %d", KeySize, len(ab))
	}
}

func TestDeriveSharedSecretRejectsBadMaterial(t *testing.T) {
	priv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	if _, err := DeriveSharedSecret(priv, []byte("short")); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Fatalf("expected ErrInvalidKeyMaterial for short public key, got %v", err)
	}
	if _, err := DeriveSharedSecret([]byte("short"), priv); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Fatalf("expected ErrInvalidKeyMaterial for short private key, got %v", err)
	}
	if _, err := PublicFromPrivate(nil); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Fatalf("expected ErrInvalidKeyMaterial for nil private key, got %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := Hash256([]byte("test key material"))
	plaintext := []byte(`{"type":"handshake","guid":"abc"}`)

	sealed, err := EncryptGCM(key, plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	opened, err := DecryptGCM(key, sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: %q", opened)
	}

	// A second encryption of the same plaintext must not reuse the nonce.
	sealed2, err := EncryptGCM(key, plaintext)
	if err != nil {
		t.Fatalf("second encrypt: %v", err)
	}
	if bytes.Equal(sealed, sealed2) {
		t.Fatal("two encryptions produced identical output")
	}
}

func TestDecryptDetectsTampering(t *testing.T) {
	key := Hash256([]byte("tamper key"))
	sealed, err := EncryptGCM(key, []byte("login_wallet payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	for i := range sealed {
		mutated := make([]byte, len(sealed))
		copy(mutated, sealed)
		mutated[i] ^= 0x01

		if _, err := DecryptGCM(key, mutated); !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("bit flip at byte %d not rejected: %v", i, err)
		}
	}
}

func TestDecryptRejectsTruncatedInput(t *testing.T) {
	key := Hash256([]byte("truncate key"))
	if _, err := DecryptGCM(key, []byte{0x01, 0x02}); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed for truncated input, got %v", err)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	key := Hash256([]byte("right key"))
	other := Hash256([]byte("wrong key"))

	sealed, err := EncryptGCM(key, []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := DecryptGCM(other, sealed); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed under wrong key, got %v", err)
	}
}

func TestGCMRejectsBadKeySize(t *testing.T) {
	if _, err := EncryptGCM([]byte("too short"), []byte("x")); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Fatalf("expected ErrInvalidKeyMaterial, got %v", err)
	}
}
