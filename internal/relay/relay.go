// Package relay models the boundary to the semi-trusted pub/sub service
// connecting the web session and the phone. The protocol core only needs a
// send primitive and a feed of received frames; connection management stays
// here.
package relay

import (
	"context"
	"encoding/json"
)

// Sender writes a text frame to the relay. Sends are fire-and-forget from
// the protocol's perspective; correlation happens through the channel
// identifier embedded in payloads.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, frame []byte) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, frame []byte) error {
	return f(ctx, frame)
}

// Command is the relay's control frame.
type Command struct {
	Coin    string `json:"coin,omitempty"`
	Command string `json:"command"`
	Entity  string `json:"entity"`
	Param   *Param `json:"param,omitempty"`
}

// Param carries the subscription argument for a control frame.
type Param struct {
	ChannelID string `json:"channelId,omitempty"`
	GUID      string `json:"guid,omitempty"`
	Address   string `json:"address,omitempty"`
}

// SubscribeSecureChannel builds the secure-channel subscription frame.
func SubscribeSecureChannel(channelID string) []byte {
	return marshalCommand(Command{
		Command: "subscribe",
		Entity:  "secure_channel",
		Param:   &Param{ChannelID: channelID},
	})
}

// SubscribeWallet subscribes the wallet guid for account-level updates such
// as email verification.
func SubscribeWallet(guid string) []byte {
	return marshalCommand(Command{
		Command: "subscribe",
		Entity:  "wallet",
		Param:   &Param{GUID: guid},
	})
}

// SubscribeHeader subscribes to new block headers for a coin.
func SubscribeHeader(coin string) []byte {
	return marshalCommand(Command{
		Coin:    coin,
		Command: "subscribe",
		Entity:  "header",
	})
}

// SubscribeXPub subscribes to transactions touching an extended public key.
func SubscribeXPub(coin, xpub string) []byte {
	return marshalCommand(Command{
		Coin:    coin,
		Command: "subscribe",
		Entity:  "xpub",
		Param:   &Param{Address: xpub},
	})
}

// SubscribeAccount subscribes to activity on an account-based chain address.
func SubscribeAccount(coin, address string) []byte {
	return marshalCommand(Command{
		Coin:    coin,
		Command: "subscribe",
		Entity:  "account",
		Param:   &Param{Address: address},
	})
}

func marshalCommand(cmd Command) []byte {
	frame, err := json.Marshal(cmd)
	if err != nil {
		// Command contains only strings; marshalling cannot fail.
		panic(err)
	}
	return frame
}
