// Package chain holds the downstream reactions to relay pushes about
// on-chain activity: latest-block tracking, payment alerts and the
// sent-vs-received reconciliation heuristic.
package chain

import (
	"context"
	"fmt"
)

// Direction of a notified transaction relative to the local wallet.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Transaction is one entry of the wallet's recent transaction history.
// Result is the net value change for the wallet, positive for incoming.
type Transaction struct {
	Hash   string `json:"hash"`
	Result int64  `json:"result"`
}

// API supplies authoritative wallet data for reconciliation.
type API interface {
	RecentTransactions(ctx context.Context, coin string, limit int) ([]Transaction, error)
}

// BlockHeader is the relay's chain-header notification payload.
type BlockHeader struct {
	BlockIndex int64  `json:"blockIndex"`
	Hash       string `json:"hash"`
	Height     int64  `json:"height"`
	Time       int64  `json:"time"`
}

// AccountEvent is an activity notification for an account-based chain,
// where the relay frames direction and confirmation itself.
type AccountEvent struct {
	Address   string
	TxHash    string
	Direction Direction
	Confirmed bool
}

// BlockStore records the latest known block per coin.
type BlockStore interface {
	SetLatest(ctx context.Context, coin string, header BlockHeader) error
	Latest(ctx context.Context, coin string) (BlockHeader, bool, error)
}

// Refresher triggers balance/transaction refreshes after a notification.
// The real data layer is an external collaborator.
type Refresher interface {
	Refresh(ctx context.Context, coin string) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, coin string) error

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context, coin string) error {
	return f(ctx, coin)
}

func validUTXOCoin(coin string) error {
	if coin != "btc" && coin != "bch" {
		return fmt.Errorf("%s is not a valid coin: direction reconciliation only accepts btc and bch", coin)
	}
	return nil
}
