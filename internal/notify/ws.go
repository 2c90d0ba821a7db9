package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"auction-sniper/internal/domain"
)

// WSConfig configures WebSocket notifier behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// HandshakeTimeout bounds the opening handshake of a dial.
	HandshakeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// wsEvent is one push frame sent to the consumer.
type wsEvent struct {
	Type string         `json:"type"`
	Data listingPayload `json:"data"`
}

// WSNotifier pushes accepted listings over a persistent WebSocket.
// A broken connection is redialed lazily on the next delivery, with
// exponential backoff between attempts; deliveries that hit the backoff
// window fail fast instead of blocking the cycle.
type WSNotifier struct {
	endpoint string
	config   WSConfig
	logger   *log.Logger

	// connMu guards conn and the redial backoff state.
	connMu    sync.Mutex
	conn      *websocket.Conn
	nextDial  time.Time
	dialDelay time.Duration

	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWSNotifier dials the endpoint and starts the keepalive loop.
func NewWSNotifier(ctx context.Context, endpoint string, config *WSConfig, logger *log.Logger) (*WSNotifier, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	n := &WSNotifier{
		endpoint:  endpoint,
		config:    cfg,
		logger:    logger,
		dialDelay: cfg.ReconnectDelay,
		done:      make(chan struct{}),
	}

	n.connMu.Lock()
	err := n.dialLocked(ctx)
	n.connMu.Unlock()
	if err != nil {
		return nil, err
	}

	n.wg.Add(1)
	go n.pingLoop()

	return n, nil
}

var _ Notifier = (*WSNotifier)(nil)

// Deliver pushes one listing frame. It reports false when the socket is
// down and the redial backoff window has not elapsed yet.
func (n *WSNotifier) Deliver(ctx context.Context, listing *domain.Listing) bool {
	if n.closed.Load() {
		return false
	}

	event := wsEvent{Type: "listing", Data: newListingPayload(listing)}

	n.connMu.Lock()
	defer n.connMu.Unlock()

	if n.conn == nil {
		if time.Now().Before(n.nextDial) {
			return false
		}
		if err := n.dialLocked(ctx); err != nil {
			n.logger.Printf("[notify] ws redial: %v", err)
			return false
		}
	}

	n.conn.SetWriteDeadline(time.Now().Add(n.config.WriteTimeout))
	if err := n.conn.WriteJSON(event); err != nil {
		n.logger.Printf("[notify] ws deliver %s: %v", listing.AuctionID, err)
		n.dropLocked()
		return false
	}
	return true
}

// Close shuts down the notifier and the underlying socket.
func (n *WSNotifier) Close() error {
	if n.closed.Swap(true) {
		return nil // already closed
	}

	close(n.done)

	n.connMu.Lock()
	if n.conn != nil {
		n.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		n.conn.Close()
		n.conn = nil
	}
	n.connMu.Unlock()

	n.wg.Wait()
	return nil
}

// dialLocked establishes the connection. Callers hold connMu.
func (n *WSNotifier) dialLocked(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: n.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, n.endpoint, nil)
	if err != nil {
		n.nextDial = time.Now().Add(n.dialDelay)
		n.dialDelay *= 2
		if n.dialDelay > n.config.MaxReconnectDelay {
			n.dialDelay = n.config.MaxReconnectDelay
		}
		return fmt.Errorf("websocket dial: %w", err)
	}

	n.conn = conn
	n.dialDelay = n.config.ReconnectDelay
	n.nextDial = time.Time{}
	return nil
}

// dropLocked discards a broken connection. Callers hold connMu.
func (n *WSNotifier) dropLocked() {
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	n.nextDial = time.Now().Add(n.dialDelay)
}

// pingLoop keeps the connection alive between deliveries.
func (n *WSNotifier) pingLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			n.connMu.Lock()
			if n.conn != nil {
				n.conn.SetWriteDeadline(time.Now().Add(n.config.WriteTimeout))
				if err := n.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					n.logger.Printf("[notify] ws ping: %v", err)
					n.dropLocked()
				}
			}
			n.connMu.Unlock()
		}
	}
}
