// Package search runs keyword searches against an auction source, gates
// raw rows through the business filters, scores survivors, and fans the
// per-(keyword, sort) tasks over a bounded worker pool.
package search

import (
	"context"

	"auction-sniper/internal/domain"
)

// Query is one page request against the auction source.
type Query struct {
	Keyword     string
	Page        int // 1-based
	Sort        domain.SortOrder
	MinPriceYen int64
	MaxPriceYen int64
}

// Row is a raw result row as the source returns it. Price and end time
// stay textual; parsing them is the searcher's job.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PriceText   string `json:"price"`
	EndTimeText string `json:"end_time,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ListingURL  string `json:"url,omitempty"`
	SellerID    string `json:"seller_id,omitempty"`
}

// Source returns one page of rows per call. An empty or short page
// signals exhaustion. Implementations: HTTP adapter in production,
// fixtures in tests.
type Source interface {
	Search(ctx context.Context, q Query) ([]Row, error)
}

// RateSource converts listing prices. Satisfied by fx.Cache.
type RateSource interface {
	Rate(ctx context.Context) float64
	YenToUSD(ctx context.Context, yen int64) float64
}
