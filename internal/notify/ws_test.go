package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsEcho runs a WebSocket server handing every received frame to sink.
func wsEcho(t *testing.T, sink chan<- wsEvent) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var event wsEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			sink <- event
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSNotifier_Deliver(t *testing.T) {
	sink := make(chan wsEvent, 1)
	srv := wsEcho(t, sink)

	n, err := NewWSNotifier(context.Background(), wsURL(srv), nil, discardLogger())
	if err != nil {
		t.Fatalf("NewWSNotifier() error: %v", err)
	}
	defer n.Close()

	if ok := n.Deliver(context.Background(), testListing()); !ok {
		t.Fatal("Deliver() = false, want true")
	}

	select {
	case event := <-sink:
		if event.Type != "listing" {
			t.Errorf("event type = %q, want listing", event.Type)
		}
		if event.Data.AuctionID != "x123456789" {
			t.Errorf("auction_id = %q", event.Data.AuctionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestWSNotifier_DialFailure(t *testing.T) {
	cfg := DefaultWSConfig()
	cfg.HandshakeTimeout = 200 * time.Millisecond

	_, err := NewWSNotifier(context.Background(), "ws://127.0.0.1:1", &cfg, discardLogger())
	if err == nil {
		t.Fatal("NewWSNotifier() error = nil against dead endpoint")
	}
}

func TestWSNotifier_DeliverAfterClose(t *testing.T) {
	sink := make(chan wsEvent, 1)
	srv := wsEcho(t, sink)

	n, err := NewWSNotifier(context.Background(), wsURL(srv), nil, discardLogger())
	if err != nil {
		t.Fatalf("NewWSNotifier() error: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if ok := n.Deliver(context.Background(), testListing()); ok {
		t.Error("Deliver() = true after Close, want false")
	}
	// Second close is a no-op.
	if err := n.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestWSNotifier_RedialBackoff(t *testing.T) {
	sink := make(chan wsEvent, 1)
	srv := wsEcho(t, sink)

	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = time.Hour // force the backoff window to stay open

	n, err := NewWSNotifier(context.Background(), wsURL(srv), &cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewWSNotifier() error: %v", err)
	}
	defer n.Close()

	// Simulate a broken socket.
	n.connMu.Lock()
	n.dropLocked()
	n.connMu.Unlock()

	if ok := n.Deliver(context.Background(), testListing()); ok {
		t.Error("Deliver() = true inside backoff window, want false")
	}

	// Expiring the window lets the next delivery redial and succeed.
	n.connMu.Lock()
	n.nextDial = time.Now().Add(-time.Second)
	n.connMu.Unlock()

	if ok := n.Deliver(context.Background(), testListing()); !ok {
		t.Fatal("Deliver() = false after backoff expiry, want true")
	}

	select {
	case <-sink:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received after redial")
	}
}
