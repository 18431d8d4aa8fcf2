package router

import (
	"encoding/json"
	"strings"

	"github.com/chain-pair/chain_pair/internal/chain"
)

// Typed classifications of a relay push. Raw JSON is decoded once into a
// schema and mapped to exactly one variant; shapes that match nothing
// become Unrecognized and are dropped, since the relay may broadcast
// topics this client does not yet understand.
type (
	// HeaderUpdate is a new chain tip announcement.
	HeaderUpdate struct {
		Coin   string
		Header chain.BlockHeader
	}

	// TransactionNotice says a transaction touched a subscribed address
	// on a UTXO chain. Direction is reconciled downstream.
	TransactionNotice struct {
		Coin string
		Hash string
	}

	// AccountNotice is activity on an account-based chain.
	AccountNotice struct {
		Coin  string
		Event chain.AccountEvent
	}

	// GenericPush carries no coin tag: a possible secure-channel envelope
	// under msg and/or an email-verification flag.
	GenericPush struct {
		Msg        string
		Email      string
		IsVerified bool
	}

	// Unrecognized matched no known shape.
	Unrecognized struct{}
)

type rawMessage struct {
	Coin        string             `json:"coin"`
	Header      *chain.BlockHeader `json:"header"`
	Transaction *struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
	Address    string `json:"address"`
	TxHash     string `json:"txHash"`
	Direction  string `json:"direction"`
	State      string `json:"state"`
	Msg        string `json:"msg"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

// Classify maps one relay push to its typed variant.
func Classify(raw []byte) any {
	var m rawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return Unrecognized{}
	}

	switch m.Coin {
	case "btc", "bch":
		if m.Header != nil {
			return HeaderUpdate{Coin: m.Coin, Header: *m.Header}
		}
		if m.Transaction != nil && m.Transaction.Hash != "" {
			return TransactionNotice{Coin: m.Coin, Hash: m.Transaction.Hash}
		}
		return Unrecognized{}
	case "eth":
		if m.Header != nil {
			return HeaderUpdate{Coin: m.Coin, Header: *m.Header}
		}
		if ev, ok := ethAccountEvent(m); ok {
			return AccountNotice{Coin: m.Coin, Event: ev}
		}
		return Unrecognized{}
	case "":
		if m.Msg == "" && m.Email == "" {
			return Unrecognized{}
		}
		return GenericPush{Msg: m.Msg, Email: m.Email, IsVerified: m.IsVerified}
	default:
		return Unrecognized{}
	}
}

func ethAccountEvent(m rawMessage) (chain.AccountEvent, bool) {
	if m.Address == "" || m.TxHash == "" {
		return chain.AccountEvent{}, false
	}

	var direction chain.Direction
	switch strings.ToLower(m.Direction) {
	case "sent":
		direction = chain.DirectionSent
	case "received":
		direction = chain.DirectionReceived
	default:
		return chain.AccountEvent{}, false
	}

	return chain.AccountEvent{
		Address:   m.Address,
		TxHash:    m.TxHash,
		Direction: direction,
		Confirmed: strings.EqualFold(m.State, "confirmed"),
	}, true
}
