// Package walletapi is the HTTP client for the wallet data API: it
// delivers outbound secure-channel envelopes and serves the recent
// transaction history used for direction reconciliation.
package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chain-pair/chain_pair/internal/chain"
	"github.com/chain-pair/chain_pair/internal/securechannel"
)

const defaultTimeout = 15 * time.Second

// Client talks to the wallet API.
type Client struct {
	base string
	http *http.Client
}

// New builds a wallet API client for the given base URL.
func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// SendSecureChannelMessage delivers an outbound envelope to the phone via
// the wallet API.
func (c *Client) SendSecureChannelMessage(ctx context.Context, env securechannel.Outbound) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/secure-channel/message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send secure channel message: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send secure channel message: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type multiAddrResponse struct {
	Txs []chain.Transaction `json:"txs"`
}

// RecentTransactions fetches the most recent transactions for the wallet's
// active context on a coin.
func (c *Client) RecentTransactions(ctx context.Context, coin string, limit int) ([]chain.Transaction, error) {
	endpoint := fmt.Sprintf("%s/%s/multiaddr?%s", c.base, url.PathEscape(coin), url.Values{
		"n":      {strconv.Itoa(limit)},
		"offset": {"0"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s transactions: %w", coin, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s transactions: unexpected status %d", coin, resp.StatusCode)
	}

	var decoded multiAddrResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode %s transactions: %w", coin, err)
	}
	return decoded.Txs, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
}
