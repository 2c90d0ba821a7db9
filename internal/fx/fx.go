// Package fx maintains the USD/JPY exchange rate used to price listings.
// The rate is cached with a TTL, sanity-checked against a plausible band,
// and persisted so restarts do not depend on the rate API being up.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"auction-sniper/internal/storage"
)

// Default configuration values.
const (
	DefaultRate     = 150.0
	DefaultTTL      = time.Hour
	DefaultEndpoint = "https://api.exchangerate-api.com/v4/latest/USD"
	DefaultTimeout  = 10 * time.Second

	// Rates outside this band are treated as API glitches and ignored.
	minSaneRate = 100.0
	maxSaneRate = 200.0
)

// Cache is the TTL-cached USD/JPY rate source. Rate never fails: when the
// API is unreachable or returns garbage, the last good (or default) rate
// is served instead.
type Cache struct {
	mu          sync.Mutex
	rate        float64
	refreshedAt time.Time
	refreshing  bool

	ttl      time.Duration
	endpoint string
	client   *http.Client
	store    storage.RateStore
	logger   *log.Logger
}

// Options configures a Cache.
type Options struct {
	// Store persists the rate across restarts. Optional.
	Store storage.RateStore

	// Endpoint is the rate API URL. Defaults to DefaultEndpoint.
	Endpoint string

	// TTL is how long a fetched rate stays fresh. Defaults to DefaultTTL.
	TTL time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Logger is required.
	Logger *log.Logger
}

// NewCache creates a rate cache, warm-starting from the store when the
// persisted rate is still within TTL.
func NewCache(opts Options) *Cache {
	c := &Cache{
		rate:     DefaultRate,
		ttl:      opts.TTL,
		endpoint: opts.Endpoint,
		client:   opts.HTTPClient,
		store:    opts.Store,
		logger:   opts.Logger,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}

	if c.store != nil {
		rate, refreshedAt, err := c.store.Load()
		if err == nil {
			at := time.Unix(refreshedAt, 0)
			if time.Since(at) < c.ttl && rate > minSaneRate && rate < maxSaneRate {
				c.rate = rate
				c.refreshedAt = at
				c.logger.Printf("loaded cached rate %.2f JPY/USD", rate)
			}
		}
	}

	return c
}

// Rate returns the current USD/JPY rate, refreshing it when stale.
// It never returns an error: refresh failures fall back to the last
// known rate. Only one caller refreshes at a time; the fetch happens
// outside the lock, and concurrent callers get the stale rate instead
// of queueing behind the network call.
func (c *Cache) Rate(ctx context.Context) float64 {
	c.mu.Lock()
	if time.Since(c.refreshedAt) < c.ttl || c.refreshing {
		rate := c.rate
		c.mu.Unlock()
		return rate
	}
	c.refreshing = true
	c.mu.Unlock()

	rate, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing = false

	if err != nil {
		c.logger.Printf("rate refresh failed, keeping %.2f: %v", c.rate, err)
		// Push the next attempt out a bit so a dead API is not hit
		// on every listing.
		c.refreshedAt = time.Now().Add(-c.ttl + 5*time.Minute)
		return c.rate
	}

	if rate <= minSaneRate || rate >= maxSaneRate {
		c.logger.Printf("rate %.2f outside sane band, keeping %.2f", rate, c.rate)
		c.refreshedAt = time.Now()
		return c.rate
	}

	c.rate = rate
	c.refreshedAt = time.Now()
	c.logger.Printf("refreshed rate: %.2f JPY/USD", rate)

	if c.store != nil {
		if err := c.store.Save(rate, c.refreshedAt.Unix()); err != nil {
			c.logger.Printf("failed to persist rate: %v", err)
		}
	}

	return c.rate
}

// YenToUSD converts a JPY price using the current rate.
func (c *Cache) YenToUSD(ctx context.Context, yen int64) float64 {
	return float64(yen) / c.Rate(ctx)
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// fetch pulls the JPY rate from the API.
func (c *Cache) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var parsed rateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}

	rate, ok := parsed.Rates["JPY"]
	if !ok || rate == 0 {
		return 0, fmt.Errorf("response missing JPY rate")
	}
	return rate, nil
}
