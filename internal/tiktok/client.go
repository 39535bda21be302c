package tiktok

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mkrencik/droppit/internal/metrics"
)

// Client maintains the WebSocket connection to the live-feed bridge and
// emits normalized chat/gift events on a bounded channel. Disconnects are
// retried indefinitely on a fixed jittered interval.
type Client struct {
	feedURL  string
	username string

	conn     *websocket.Conn
	mu       sync.RWMutex
	shutdown chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	connected bool
	events    chan FeedEvent
}

// NewClient creates a feed client for the given bridge URL and stream
// username.
func NewClient(feedURL, username string) *Client {
	return &Client{
		feedURL:  feedURL,
		username: username,
		shutdown: make(chan struct{}),
		events:   make(chan FeedEvent, EventBufferSize),
	}
}

// Events returns the normalized event channel. The channel is closed when
// the client stops.
func (c *Client) Events() <-chan FeedEvent {
	return c.events
}

// Start begins the connection loop with auto-reconnect.
func (c *Client) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.connectLoop(ctx)
}

// Stop gracefully shuts down the client.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.shutdown)
	})
	c.wg.Wait()

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	close(c.events)
}

// IsConnected returns whether the client is currently connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) connectLoop(ctx context.Context) {
	defer c.wg.Done()

	failures := 0
	for {
		select {
		case <-c.shutdown:
			slog.Info(LogMsgClientStopped)
			return
		case <-ctx.Done():
			slog.Info(LogMsgClientStopped)
			return
		default:
		}

		err := c.connect(ctx)
		if err != nil {
			failures++
			c.setConnected(false)
			metrics.FeedReconnects.Inc()

			// Log the first few failures and then periodically to avoid spam.
			if failures <= 3 || failures%100 == 0 {
				slog.Warn(LogMsgReconnecting,
					"error", err,
					"consecutive_failures", failures)
			}

			select {
			case <-time.After(reconnectDelay()):
			case <-c.shutdown:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		if failures > 0 {
			slog.Info("Live feed connection restored", "after_failures", failures)
		}
		failures = 0
	}
}

// reconnectDelay returns a jittered fixed interval in [min, max).
func reconnectDelay() time.Duration {
	spread := ReconnectDelayMax - ReconnectDelayMin
	return ReconnectDelayMin + time.Duration(rand.Int63n(int64(spread)))
}

func (c *Client) connect(ctx context.Context) error {
	target, err := url.Parse(c.feedURL)
	if err != nil {
		return fmt.Errorf("invalid feed url: %w", err)
	}
	q := target.Query()
	q.Set("username", c.username)
	target.RawQuery = q.Encode()

	slog.Info(LogMsgConnecting, "url", target.String())

	dialer := websocket.Dialer{
		ReadBufferSize:  ReadBufferSize,
		WriteBufferSize: WriteBufferSize,
	}

	conn, resp, err := dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect: %w (status: %s)", err, resp.Status)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setConnected(true)
	slog.Info(LogMsgConnected, "username", c.username)

	return c.readLoop(ctx, conn)
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-c.shutdown:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("feed closed: %w", err)
			}
			slog.Warn(LogMsgReadError, "error", err)
			return err
		}

		evt, ok, err := decodeEnvelope(msg)
		if err != nil || !ok {
			slog.Debug(LogMsgUnknownEnvelope, "error", err)
			continue
		}

		// Never block the read loop: a full buffer drops the event.
		select {
		case c.events <- evt:
		default:
			slog.Warn(LogMsgEventDropped, "kind", evt.Kind)
		}
	}
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
}
