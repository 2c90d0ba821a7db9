package domain

import "time"

// SortOrder selects the result ordering requested from the auction source.
type SortOrder string

const (
	SortNewest     SortOrder = "new"      // newest listings first
	SortLowestBid  SortOrder = "cbids"    // lowest current bid first
	SortEndingSoon SortOrder = "end"      // ending soonest first
	SortMostBids   SortOrder = "bids"     // most bids first
	SortFeatured   SortOrder = "featured" // source-featured listings
)

// String returns the string representation of SortOrder.
func (s SortOrder) String() string {
	return string(s)
}

// IsValid checks if the sort order is a known value.
func (s SortOrder) IsValid() bool {
	switch s {
	case SortNewest, SortLowestBid, SortEndingSoon, SortMostBids, SortFeatured:
		return true
	}
	return false
}

// Listing is one accepted auction result. It is created when a search row
// passes all gates, scored immediately, and then either delivered or dropped.
// Fields are never mutated after creation except Priority, which is attached
// once quality is known.
type Listing struct {
	AuctionID string // unique source-issued ID, dedup key
	Title     string // raw listing title
	Brand     string // catalog brand name ("unknown" rows are rejected earlier)
	PriceJPY  int64  // source price in yen
	PriceUSD  float64

	Quality  float64 // deal quality in [0,1]
	Priority float64 // delivery ordering score

	SellerID   string
	ListingURL string
	ProxyURL   string // proxy-buy URL derived from the auction ID
	ImageURL   string

	EndTime *time.Time // nullable, auctions only
	Sizes   []string   // detected size tokens, may be empty

	// FreshNewest marks a row taken from page 1 of a newest-first search.
	FreshNewest bool

	FoundAt time.Time
}
