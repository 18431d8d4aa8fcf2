package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chain-pair/chain_pair/internal/alerts"
)

// reconciliation window: how many recent transactions to scan for a
// notified hash.
const recentTxWindow = 50

// Service reacts to chain notifications classified by the router.
type Service struct {
	api       API
	blocks    BlockStore
	notifier  alerts.Notifier
	refresher Refresher
	logger    *slog.Logger
}

// NewService wires the chain reaction service.
func NewService(api API, blocks BlockStore, notifier alerts.Notifier, refresher Refresher, logger *slog.Logger) *Service {
	return &Service{api: api, blocks: blocks, notifier: notifier, refresher: refresher, logger: logger}
}

// HandleHeader records the latest block for the coin.
func (s *Service) HandleHeader(ctx context.Context, coin string, header BlockHeader) error {
	if err := s.blocks.SetLatest(ctx, coin, header); err != nil {
		return fmt.Errorf("store latest %s block: %w", coin, err)
	}
	s.logger.Debug("latest block updated", "coin", coin, "height", header.Height, "hash", header.Hash)
	return nil
}

// HandleTransaction reconciles a transaction notification against recent
// history, alerts on received payments and triggers a data refresh.
func (s *Service) HandleTransaction(ctx context.Context, coin, txHash string) error {
	direction, err := s.SentOrReceived(ctx, coin, txHash)
	if err != nil {
		return err
	}
	if direction == DirectionReceived {
		s.notifier.Display(ctx, alerts.SeveritySuccess, receivedAlert(coin))
	}
	if err := s.refresher.Refresh(ctx, coin); err != nil {
		return fmt.Errorf("refresh %s data: %w", coin, err)
	}
	return nil
}

// SentOrReceived classifies a notified transaction by re-querying recent
// history rather than trusting the relay's framing: the relay only says a
// transaction touched an address, not in which direction. A hash absent
// from the window defaults to sent.
func (s *Service) SentOrReceived(ctx context.Context, coin, txHash string) (Direction, error) {
	if err := validUTXOCoin(coin); err != nil {
		return "", err
	}
	txs, err := s.api.RecentTransactions(ctx, coin, recentTxWindow)
	if err != nil {
		return "", fmt.Errorf("fetch %s transactions: %w", coin, err)
	}
	for _, tx := range txs {
		if tx.Hash == txHash {
			if tx.Result > 0 {
				return DirectionReceived, nil
			}
			break
		}
	}
	return DirectionSent, nil
}

// HandleAccountEvent reacts to an account-based chain notification.
func (s *Service) HandleAccountEvent(ctx context.Context, coin string, ev AccountEvent) error {
	switch {
	case ev.Direction == DirectionReceived && !ev.Confirmed:
		s.notifier.Display(ctx, alerts.SeverityInfo, alerts.PaymentPendingETH)
		return nil
	case ev.Direction == DirectionReceived && ev.Confirmed:
		s.notifier.Display(ctx, alerts.SeveritySuccess, alerts.PaymentReceivedETH)
	case ev.Direction == DirectionSent && ev.Confirmed:
		s.notifier.Display(ctx, alerts.SeveritySuccess, alerts.SendConfirmedETH)
	default:
		return nil
	}
	if err := s.refresher.Refresh(ctx, coin); err != nil {
		return fmt.Errorf("refresh %s data: %w", coin, err)
	}
	return nil
}

func receivedAlert(coin string) string {
	if coin == "bch" {
		return alerts.PaymentReceivedBCH
	}
	return alerts.PaymentReceivedBTC
}
