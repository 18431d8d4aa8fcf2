package walletapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chain-pair/chain_pair/internal/securechannel"
)

func TestSendSecureChannelMessage(t *testing.T) {
	var received securechannel.Outbound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/secure-channel/message" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL)
	env := securechannel.Outbound{GUID: "g1", Message: "aabb", PubKeyHash: "ccdd"}
	if err := client.SendSecureChannelMessage(context.Background(), env); err != nil {
		t.Fatalf("SendSecureChannelMessage: %v", err)
	}
	if received != env {
		t.Fatalf("server received %+v, want %+v", received, env)
	}
}

func TestSendSecureChannelMessageFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL)
	if err := client.SendSecureChannelMessage(context.Background(), securechannel.Outbound{}); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestRecentTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/btc/multiaddr" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("n") != "50" {
			t.Errorf("unexpected window: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"txs":[{"hash":"h1","result":-20},{"hash":"h2","result":450}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := New(srv.URL)
	txs, err := client.RecentTransactions(context.Background(), "btc", 50)
	if err != nil {
		t.Fatalf("RecentTransactions: %v", err)
	}
	if len(txs) != 2 || txs[1].Hash != "h2" || txs[1].Result != 450 {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
}
