// Package ingest implements C2: the WebSocket trade/orderbook workers and
// the REST ticker poller that feed raw exchange data into C1/C3/C4.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// wsClient wraps a gorilla/websocket connection with a thread-safe writer
// and a keep-alive ping loop, adapted from the teacher's websocket/client.go
// for a public, unauthenticated feed (no auth header, no protobuf framing).
type wsClient struct {
	url     string
	header  http.Header
	conn    *websocket.Conn
	writeMu sync.Mutex

	pingCancel context.CancelFunc
}

func newWSClient(url string) *wsClient {
	return &wsClient{url: url, header: make(http.Header)}
}

func (c *wsClient) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

// StartPing begins a background ping loop; it is canceled by Close.
func (c *wsClient) StartPing(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	c.pingCancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.writeMu.Lock()
				err := c.conn.WriteMessage(websocket.PingMessage, nil)
				c.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()
}

// WriteJSON sends a JSON message thread-safely.
func (c *wsClient) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("connection is nil")
	}
	return c.conn.WriteJSON(v)
}

// ReadJSON decodes the next JSON frame into v.
func (c *wsClient) ReadJSON(v any) error {
	return c.conn.ReadJSON(v)
}

func (c *wsClient) Close() error {
	if c.pingCancel != nil {
		c.pingCancel()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// runWithReconnect keeps calling session (which should block until the
// connection fails or ctx is canceled) and reconnects after delay on any
// non-context error, matching spec §4.2's "reconnect after 5s with
// identical subscription" for both the trade and orderbook workers.
func runWithReconnect(ctx context.Context, workerName string, delay time.Duration, session func(ctx context.Context) error) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := session(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Str("worker", workerName).Err(err).Dur("retry_in", delay).Msg("ingestion session ended, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
