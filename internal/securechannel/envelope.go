package securechannel

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chain-pair/chain_pair/internal/crypto"
)

// ErrMalformedEnvelope indicates hex decoding or JSON parsing of an
// envelope failed. Distinct from crypto.ErrAuthenticationFailed, which
// means the ciphertext itself did not verify.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Outbound is the wire envelope pushed to the phone through the delivery
// collaborator, addressed by guid.
type Outbound struct {
	GUID       string `json:"guid"`
	Message    string `json:"message"`
	PubKeyHash string `json:"pubkeyhash"`
}

// Inbound is the wire envelope the relay delivers under the generic msg
// field of a push.
type Inbound struct {
	Success   bool   `json:"success"`
	PubKey    string `json:"pubkey"`
	Message   string `json:"message"`
	ChannelID string `json:"channelId"`
}

// DecodeInbound parses the JSON string carried in a relay push's msg field.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env Inbound
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return env, nil
}

// Seal encrypts plaintext for the peer and wraps it with routing metadata.
// The shared secret is derived from the local private key and the peer's
// public key; the sender fingerprint lets the phone verify who is pinging.
func Seal(localPrivHex, peerPubHex, guid string, plaintext []byte) (Outbound, error) {
	priv, err := hex.DecodeString(localPrivHex)
	if err != nil {
		return Outbound{}, fmt.Errorf("%w: private key is not hex", crypto.ErrInvalidKeyMaterial)
	}
	peerPub, err := hex.DecodeString(peerPubHex)
	if err != nil {
		return Outbound{}, fmt.Errorf("%w: peer public key is not hex", crypto.ErrInvalidKeyMaterial)
	}

	secret, err := crypto.DeriveSharedSecret(priv, peerPub)
	if err != nil {
		return Outbound{}, err
	}
	sealed, err := crypto.EncryptGCM(secret, plaintext)
	if err != nil {
		return Outbound{}, err
	}
	localPub, err := crypto.PublicFromPrivate(priv)
	if err != nil {
		return Outbound{}, err
	}

	return Outbound{
		GUID:       guid,
		Message:    hex.EncodeToString(sealed),
		PubKeyHash: hex.EncodeToString(crypto.Hash256(localPub)),
	}, nil
}

// Open decrypts an inbound envelope using the sender's public key from the
// envelope itself. First-time pairings have no stored phone key, so the
// stored key is deliberately not consulted here.
func Open(localPrivHex string, env Inbound) ([]byte, error) {
	priv, err := hex.DecodeString(localPrivHex)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not hex", crypto.ErrInvalidKeyMaterial)
	}
	senderPub, err := hex.DecodeString(env.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: pubkey is not hex", ErrMalformedEnvelope)
	}
	sealed, err := hex.DecodeString(env.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: message is not hex", ErrMalformedEnvelope)
	}

	secret, err := crypto.DeriveSharedSecret(priv, senderPub)
	if err != nil {
		return nil, err
	}
	return crypto.DecryptGCM(secret, sealed)
}
