package securechannel

import (
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/chain-pair/chain_pair/internal/crypto"
)

type party struct {
	privHex string
	pubHex  string
}

func newParty(t *testing.T) party {
	t.Helper()
	priv, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pub, err := crypto.PublicFromPrivate(priv)
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	return party{privHex: hex.EncodeToString(priv), pubHex: hex.EncodeToString(pub)}
}

func TestSealOpenRoundTrip(t *testing.T) {
	web := newParty(t)
	phone := newParty(t)

	plaintext, err := encodePing("chan-7", time.UnixMilli(1700000000000))
	if err != nil {
		t.Fatalf("encode ping: %v", err)
	}

	out, err := Seal(web.privHex, phone.pubHex, "guid-1", plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if out.GUID != "guid-1" {
		t.Fatalf("guid not carried: %+v", out)
	}

	webPub, _ := hex.DecodeString(web.pubHex)
	if out.PubKeyHash != hex.EncodeToString(crypto.Hash256(webPub)) {
		t.Fatalf("sender fingerprint mismatch: %s", out.PubKeyHash)
	}

	// The phone opens it with its own private key and the web public key.
	opened, err := Open(phone.privHex, Inbound{
		Success:   true,
		PubKey:    web.pubHex,
		Message:   out.Message,
		ChannelID: "chan-7",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	payload, err := DecodePayload(opened)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	lw, ok := payload.(LoginWallet)
	if !ok {
		t.Fatalf("expected LoginWallet, got %T", payload)
	}
	if lw.Timestamp != 1700000000000 {
		t.Fatalf("timestamp mismatch: %d", lw.Timestamp)
	}
}

func TestOpenRejectsMalformedHex(t *testing.T) {
	web := newParty(t)

	_, err := Open(web.privHex, Inbound{PubKey: "zz-not-hex", Message: "00"})
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope for bad pubkey, got %v", err)
	}

	phone := newParty(t)
	_, err = Open(web.privHex, Inbound{PubKey: phone.pubHex, Message: "not-hex"})
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope for bad message, got %v", err)
	}
}

func TestOpenRejectsTamperedMessage(t *testing.T) {
	web := newParty(t)
	phone := newParty(t)

	out, err := Seal(web.privHex, phone.pubHex, "guid-1", []byte(`{"type":"handshake"}`))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	sealed, _ := hex.DecodeString(out.Message)
	sealed[len(sealed)-1] ^= 0x01

	_, err = Open(phone.privHex, Inbound{PubKey: web.pubHex, Message: hex.EncodeToString(sealed)})
	if !errors.Is(err, crypto.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestDecodeInbound(t *testing.T) {
	env, err := DecodeInbound([]byte(`{"success":true,"pubkey":"aa","message":"bb","channelId":"c1"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.PubKey != "aa" || env.Message != "bb" || env.ChannelID != "c1" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	if _, err := DecodeInbound([]byte("{not json")); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestDecodePayloadVariants(t *testing.T) {
	payload, err := DecodePayload([]byte(`{"type":"handshake","guid":"g1"}`))
	if err != nil {
		t.Fatalf("decode handshake: %v", err)
	}
	if hs, ok := payload.(Handshake); !ok || hs.GUID != "g1" {
		t.Fatalf("unexpected handshake: %#v", payload)
	}

	payload, err = DecodePayload([]byte(`{"type":"login_wallet","guid":"g2","password":"pw","sharedKey":"sk","remember":true}`))
	if err != nil {
		t.Fatalf("decode login_wallet: %v", err)
	}
	lw, ok := payload.(LoginWallet)
	if !ok || lw.GUID != "g2" || lw.Password != "pw" || lw.SharedKey != "sk" || !lw.Remember {
		t.Fatalf("unexpected login_wallet: %#v", payload)
	}

	payload, err = DecodePayload([]byte(`{"type":"future_thing"}`))
	if err != nil {
		t.Fatalf("decode unknown: %v", err)
	}
	if _, ok := payload.(Unrecognized); !ok {
		t.Fatalf("expected Unrecognized, got %T", payload)
	}
}
