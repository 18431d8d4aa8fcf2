package channel

import "time"

// Identity holds the long-term local key material for the secure channel and
// the remembered pairing state. ChannelID and PrivKeyHex are created together,
// lazily, on first channel open and never regenerated within a cached session.
type Identity struct {
	ChannelID   string
	PrivKeyHex  string
	PhonePubKey string // hex, set only after a remembered pairing
	LastGUID    string
	LastLogout  time.Time
}

// HasPairedPhone reports whether a phone public key was remembered.
func (i Identity) HasPairedPhone() bool {
	return i.PhonePubKey != ""
}
