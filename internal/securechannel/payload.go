package securechannel

import (
	"encoding/json"
	"fmt"
	"time"
)

// Plaintext payload type tags on the wire.
const (
	TypeHandshake   = "handshake"
	TypeLoginWallet = "login_wallet"
)

// Handshake is the phone announcing presence and identity. The peer public
// key travels in the envelope, not the plaintext.
type Handshake struct {
	GUID string
}

// LoginWallet is the phone supplying the credential triple to complete the
// login. Remember asks the web session to cache the phone's public key for
// future fast pings.
type LoginWallet struct {
	GUID      string
	Password  string
	SharedKey string
	Remember  bool
	Timestamp int64
}

// Unrecognized is returned for payloads whose type tag matches no known
// variant. Handlers log and drop these.
type Unrecognized struct {
	Type string
}

type rawPayload struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId,omitempty"`
	GUID      string `json:"guid,omitempty"`
	Password  string `json:"password,omitempty"`
	SharedKey string `json:"sharedKey,omitempty"`
	Remember  bool   `json:"remember,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// DecodePayload parses a decrypted plaintext into its tagged variant.
func DecodePayload(plaintext []byte) (any, error) {
	var raw rawPayload
	if err := json.Unmarshal(plaintext, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrMalformedEnvelope, err)
	}
	switch raw.Type {
	case TypeHandshake:
		return Handshake{GUID: raw.GUID}, nil
	case TypeLoginWallet:
		return LoginWallet{
			GUID:      raw.GUID,
			Password:  raw.Password,
			SharedKey: raw.SharedKey,
			Remember:  raw.Remember,
			Timestamp: raw.Timestamp,
		}, nil
	default:
		return Unrecognized{Type: raw.Type}, nil
	}
}

// encodePing builds the login_wallet nudge sent to a phone. Each ping is
// self-contained (it carries its own timestamp), so duplicates are benign.
func encodePing(channelID string, at time.Time) ([]byte, error) {
	return json.Marshal(rawPayload{
		Type:      TypeLoginWallet,
		ChannelID: channelID,
		Timestamp: at.UnixMilli(),
	})
}
