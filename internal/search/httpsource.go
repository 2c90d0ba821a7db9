package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTP source defaults.
const (
	DefaultSourceTimeout = 15 * time.Second
	DefaultSourceRetries = 2
	defaultRetryDelay    = time.Second
)

// HTTPSource fetches result pages from an auction search gateway that
// speaks JSON. It retries transient failures with a flat delay; the
// per-row gates downstream tolerate anything it lets through.
type HTTPSource struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// SourceOption configures an HTTPSource.
type SourceOption func(*HTTPSource)

// WithSourceTimeout sets the HTTP client timeout.
func WithSourceTimeout(d time.Duration) SourceOption {
	return func(s *HTTPSource) {
		s.client.Timeout = d
	}
}

// WithSourceRetries sets maximum retry attempts per page.
func WithSourceRetries(n int) SourceOption {
	return func(s *HTTPSource) {
		s.maxRetries = n
	}
}

// WithSourceClient sets a custom http.Client.
func WithSourceClient(client *http.Client) SourceOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// NewHTTPSource creates a source against the given search endpoint.
func NewHTTPSource(endpoint string, opts ...SourceOption) *HTTPSource {
	s := &HTTPSource{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: DefaultSourceTimeout},
		maxRetries: DefaultSourceRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchResponse struct {
	Rows []Row `json:"rows"`
}

// Search fetches one page of rows.
func (s *HTTPSource) Search(ctx context.Context, q Query) ([]Row, error) {
	params := url.Values{}
	params.Set("q", q.Keyword)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("sort", q.Sort.String())
	if q.MinPriceYen > 0 {
		params.Set("min_price", strconv.FormatInt(q.MinPriceYen, 10))
	}
	if q.MaxPriceYen > 0 {
		params.Set("max_price", strconv.FormatInt(q.MaxPriceYen, 10))
	}
	reqURL := s.endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		rows, err := s.fetch(ctx, reqURL)
		if err != nil {
			lastErr = err
			continue
		}
		return rows, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *HTTPSource) fetch(ctx context.Context, reqURL string) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return parsed.Rows, nil
}

// Verify interface compliance at compile time.
var _ Source = (*HTTPSource)(nil)
