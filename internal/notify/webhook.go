package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"auction-sniper/internal/domain"
)

const (
	// DefaultWebhookTimeout bounds a single delivery attempt.
	DefaultWebhookTimeout = 15 * time.Second

	listingPath = "/webhook/listing"
	statsPath   = "/webhook/stats"
	healthPath  = "/health"
)

// WebhookNotifier posts accepted listings to an HTTP consumer.
type WebhookNotifier struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithWebhookTimeout overrides the per-request timeout.
func WithWebhookTimeout(timeout time.Duration) WebhookOption {
	return func(n *WebhookNotifier) {
		n.client.Timeout = timeout
	}
}

// WithWebhookClient replaces the underlying HTTP client.
func WithWebhookClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		n.client = client
	}
}

// NewWebhookNotifier creates a notifier posting to baseURL.
func NewWebhookNotifier(baseURL string, logger *log.Logger, opts ...WebhookOption) *WebhookNotifier {
	if logger == nil {
		logger = log.Default()
	}
	n := &WebhookNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultWebhookTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ Notifier = (*WebhookNotifier)(nil)

// Deliver posts one listing. A failed delivery is logged and reported as
// false; the caller does not retry within the cycle.
func (n *WebhookNotifier) Deliver(ctx context.Context, listing *domain.Listing) bool {
	if err := n.post(ctx, listingPath, newListingPayload(listing)); err != nil {
		n.logger.Printf("[notify] deliver %s: %v", listing.AuctionID, err)
		return false
	}
	return true
}

// DeliverStats posts end-of-cycle statistics.
func (n *WebhookNotifier) DeliverStats(ctx context.Context, stats domain.CycleStats) bool {
	if err := n.post(ctx, statsPath, stats); err != nil {
		n.logger.Printf("[notify] deliver stats cycle=%d: %v", stats.Cycle, err)
		return false
	}
	return true
}

// Healthy probes the consumer's health endpoint.
func (n *WebhookNotifier) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+healthPath, nil)
	if err != nil {
		return false
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

func (n *WebhookNotifier) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
