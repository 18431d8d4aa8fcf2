package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

// Client is a WebSocket connection to the relay.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
}

// Dial connects to the relay at url.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	// Relay frames are small JSON documents, but allow some slack for
	// batched transaction notifications.
	conn.SetReadLimit(1 << 20)
	return &Client{conn: conn, logger: logger}, nil
}

// Send writes a text frame to the relay.
func (c *Client) Send(ctx context.Context, frame []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, frame)
}

// Listen reads frames into out until the connection closes or ctx is
// cancelled, then closes out. Closure does not erase handshake progress;
// the caller resubscribes on reconnect with the same persisted identity.
func (c *Client) Listen(ctx context.Context, out chan<- []byte) {
	defer close(out)
	for {
		_, frame, err := c.conn.Read(ctx)
		if err != nil {
			c.logger.Error("relay connection closed",
				"component", "relay/client",
				"function", "Listen",
				"error", err,
				"closed_at", time.Now().UnixMilli(),
			)
			return
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "shutting down")
}
