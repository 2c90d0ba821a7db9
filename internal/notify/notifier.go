// Package notify delivers accepted listings to downstream sinks.
//
// Delivery is fire-and-forget: each sink reports per-item success as a
// boolean and the caller never retries a failed delivery within the same
// cycle. Failed items simply surface again on a later cycle because the
// processed ledger is only written after a successful delivery.
package notify

import (
	"context"

	"auction-sniper/internal/domain"
)

// Notifier pushes one accepted listing to a downstream consumer.
type Notifier interface {
	// Deliver sends the listing and reports whether the sink accepted it.
	Deliver(ctx context.Context, listing *domain.Listing) bool
}

// listingPayload is the wire form of a delivered listing.
type listingPayload struct {
	AuctionID  string   `json:"auction_id"`
	Title      string   `json:"title"`
	Brand      string   `json:"brand"`
	PriceJPY   int64    `json:"price_jpy"`
	PriceUSD   float64  `json:"price_usd"`
	Quality    float64  `json:"deal_quality"`
	Priority   float64  `json:"priority"`
	SellerID   string   `json:"seller_id,omitempty"`
	ListingURL string   `json:"url"`
	ProxyURL   string   `json:"proxy_url"`
	ImageURL   string   `json:"image_url,omitempty"`
	EndTimeMs  int64    `json:"end_time_ms,omitempty"`
	Sizes      []string `json:"sizes,omitempty"`
	Fresh      bool     `json:"fresh_newest"`
	FoundAtMs  int64    `json:"found_at_ms"`
}

func newListingPayload(l *domain.Listing) listingPayload {
	p := listingPayload{
		AuctionID:  l.AuctionID,
		Title:      l.Title,
		Brand:      l.Brand,
		PriceJPY:   l.PriceJPY,
		PriceUSD:   l.PriceUSD,
		Quality:    l.Quality,
		Priority:   l.Priority,
		SellerID:   l.SellerID,
		ListingURL: l.ListingURL,
		ProxyURL:   l.ProxyURL,
		ImageURL:   l.ImageURL,
		Sizes:      l.Sizes,
		Fresh:      l.FreshNewest,
		FoundAtMs:  l.FoundAt.UnixMilli(),
	}
	if l.EndTime != nil {
		p.EndTimeMs = l.EndTime.UnixMilli()
	}
	return p
}

// FuncNotifier adapts a plain function to the Notifier interface.
type FuncNotifier func(ctx context.Context, listing *domain.Listing) bool

// Deliver implements Notifier.
func (f FuncNotifier) Deliver(ctx context.Context, listing *domain.Listing) bool {
	return f(ctx, listing)
}
