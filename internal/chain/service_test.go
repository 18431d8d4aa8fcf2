package chain

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chain-pair/chain_pair/internal/alerts"
	"github.com/chain-pair/chain_pair/internal/logging"
)

type fakeAPI struct {
	txs []Transaction
	err error
}

func (f *fakeAPI) RecentTransactions(_ context.Context, _ string, _ int) ([]Transaction, error) {
	return f.txs, f.err
}

type recordingNotifier struct {
	codes []string
}

func (n *recordingNotifier) Display(_ context.Context, _ alerts.Severity, code string) {
	n.codes = append(n.codes, code)
}

func newTestService(api API) (*Service, *recordingNotifier, *[]string) {
	notifier := &recordingNotifier{}
	refreshed := &[]string{}
	refresher := RefresherFunc(func(_ context.Context, coin string) error {
		*refreshed = append(*refreshed, coin)
		return nil
	})
	svc := NewService(api, NewMemoryBlockStore(), notifier, refresher, logging.Discard())
	return svc, notifier, refreshed
}

func TestSentOrReceived(t *testing.T) {
	history := []Transaction{
		{Hash: "aaa", Result: -500},
		{Hash: "bbb", Result: 1200},
	}

	cases := []struct {
		name string
		hash string
		want Direction
	}{
		{"positive net value", "bbb", DirectionReceived},
		{"negative net value", "aaa", DirectionSent},
		{"hash not in history", "zzz", DirectionSent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(&fakeAPI{txs: history})
			got, err := svc.SentOrReceived(context.Background(), "btc", tc.hash)
			if err != nil {
				t.Fatalf("SentOrReceived: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestSentOrReceivedRejectsAccountCoins(t *testing.T) {
	svc, _, _ := newTestService(&fakeAPI{})
	if _, err := svc.SentOrReceived(context.Background(), "eth", "aaa"); err == nil {
		t.Fatal("expected error for eth")
	}
}

func TestHandleTransactionAlertsOnReceive(t *testing.T) {
	svc, notifier, refreshed := newTestService(&fakeAPI{txs: []Transaction{{Hash: "rx", Result: 900}}})

	if err := svc.HandleTransaction(context.Background(), "bch", "rx"); err != nil {
		t.Fatalf("HandleTransaction: %v", err)
	}
	if len(notifier.codes) != 1 || notifier.codes[0] != alerts.PaymentReceivedBCH {
		t.Fatalf("unexpected alerts: %v", notifier.codes)
	}
	if len(*refreshed) != 1 || (*refreshed)[0] != "bch" {
		t.Fatalf("expected bch refresh, got %v", *refreshed)
	}
}

func TestHandleTransactionSilentOnSend(t *testing.T) {
	svc, notifier, refreshed := newTestService(&fakeAPI{txs: []Transaction{{Hash: "tx", Result: -10}}})

	if err := svc.HandleTransaction(context.Background(), "btc", "tx"); err != nil {
		t.Fatalf("HandleTransaction: %v", err)
	}
	if len(notifier.codes) != 0 {
		t.Fatalf("sent transaction must not alert: %v", notifier.codes)
	}
	// Data still refreshes either way.
	if len(*refreshed) != 1 {
		t.Fatalf("expected one refresh, got %v", *refreshed)
	}
}

func TestHandleAccountEvent(t *testing.T) {
	cases := []struct {
		name      string
		ev        AccountEvent
		wantCode  string
		refreshes int
	}{
		{"received pending", AccountEvent{Direction: DirectionReceived}, alerts.PaymentPendingETH, 0},
		{"received confirmed", AccountEvent{Direction: DirectionReceived, Confirmed: true}, alerts.PaymentReceivedETH, 1},
		{"sent confirmed", AccountEvent{Direction: DirectionSent, Confirmed: true}, alerts.SendConfirmedETH, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, notifier, refreshed := newTestService(&fakeAPI{})
			if err := svc.HandleAccountEvent(context.Background(), "eth", tc.ev); err != nil {
				t.Fatalf("HandleAccountEvent: %v", err)
			}
			if len(notifier.codes) != 1 || notifier.codes[0] != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, notifier.codes)
			}
			if len(*refreshed) != tc.refreshes {
				t.Fatalf("expected %d refreshes, got %d", tc.refreshes, len(*refreshed))
			}
		})
	}
}

func TestHandleAccountEventUnconfirmedSendIgnored(t *testing.T) {
	svc, notifier, _ := newTestService(&fakeAPI{})
	if err := svc.HandleAccountEvent(context.Background(), "eth", AccountEvent{Direction: DirectionSent}); err != nil {
		t.Fatalf("HandleAccountEvent: %v", err)
	}
	if len(notifier.codes) != 0 {
		t.Fatalf("unconfirmed send must be silent: %v", notifier.codes)
	}
}

func TestRedisBlockStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	store := NewRedisBlockStore(cache)
	ctx := context.Background()

	if _, ok, err := store.Latest(ctx, "btc"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	header := BlockHeader{BlockIndex: 4, Hash: "00ab", Height: 830000, Time: 1700000000}
	if err := store.SetLatest(ctx, "btc", header); err != nil {
		t.Fatalf("SetLatest: %v", err)
	}

	got, ok, err := store.Latest(ctx, "btc")
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if got != header {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, header)
	}
}
