package search

import (
	"context"
	"log"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/scoring"
	"auction-sniper/internal/storage"
)

// Price gates. Listings outside the band are filtered, not errors.
const (
	MinPriceUSD = 2.0
	MaxPriceUSD = 1500.0
	MaxPriceYen = 100000

	// QualityThreshold rejects only pathological scores; real filtering
	// happens in the quality model itself.
	QualityThreshold = 0.01

	// DefaultPageSize is the row count of a full result page. A page
	// materially shorter than this means no further pages exist.
	DefaultPageSize = 20

	// coldPages is how many consecutive pages with zero accepted rows
	// end pagination for a keyword mid-run.
	coldPages = 2
)

// Searcher turns (keyword, sort, pages) into scored listings, applying
// the dedup, brand, price and quality gates per row.
type Searcher struct {
	source    Source
	catalog   *domain.Catalog
	seen      storage.SeenStore
	processed storage.ProcessedStore
	rates     RateSource
	logger    *log.Logger
	pageSize  int
	now       func() time.Time
}

// SearcherOptions configures a Searcher. Source, Catalog, Seen, Rates
// and Logger are required; Processed is optional (no durable ledger in
// memory-only runs).
type SearcherOptions struct {
	Source    Source
	Catalog   *domain.Catalog
	Seen      storage.SeenStore
	Processed storage.ProcessedStore
	Rates     RateSource
	Logger    *log.Logger
	PageSize  int
}

// NewSearcher creates a Searcher.
func NewSearcher(opts SearcherOptions) *Searcher {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Searcher{
		source:    opts.Source,
		catalog:   opts.Catalog,
		seen:      opts.Seen,
		processed: opts.Processed,
		rates:     opts.Rates,
		logger:    opts.Logger,
		pageSize:  pageSize,
		now:       time.Now,
	}
}

// SearchKeyword pages through one (keyword, sort) pair. It returns the
// accepted listings and the transient error count; a failing page is
// counted and skipped, never fatal.
func (s *Searcher) SearchKeyword(ctx context.Context, keyword string, maxPages int, sort domain.SortOrder, delay time.Duration) ([]*domain.Listing, int) {
	var listings []*domain.Listing
	errCount := 0
	cold := 0

	for page := 1; page <= maxPages; page++ {
		if page > 1 && delay > 0 {
			select {
			case <-ctx.Done():
				return listings, errCount
			case <-time.After(delay):
			}
		}

		rows, err := s.source.Search(ctx, Query{
			Keyword:     keyword,
			Page:        page,
			Sort:        sort,
			MaxPriceYen: MaxPriceYen,
		})
		if err != nil {
			errCount++
			s.logger.Printf("search %q page %d failed: %v", keyword, page, err)
			continue
		}

		accepted := 0
		for i := range rows {
			listing, ok := s.evaluate(ctx, &rows[i], sort, page)
			if !ok {
				continue
			}
			listings = append(listings, listing)
			accepted++
		}

		// Short page: the source has no further results.
		if len(rows) < s.pageSize {
			break
		}

		// Keyword gone cold mid-run: stop burning page budget.
		if accepted == 0 {
			cold++
			if cold >= coldPages {
				break
			}
		} else {
			cold = 0
		}
	}

	return listings, errCount
}

// evaluate runs one raw row through every gate. The order matters:
// cheap dedup first, network-free filters next, scoring last.
func (s *Searcher) evaluate(ctx context.Context, row *Row, sort domain.SortOrder, page int) (*domain.Listing, bool) {
	if row.ID == "" || s.seen.Contains(row.ID) {
		return nil, false
	}

	if s.processed != nil {
		exists, err := s.processed.Exists(ctx, row.ID)
		if err != nil {
			s.logger.Printf("processed lookup for %s failed: %v", row.ID, err)
		} else if exists {
			s.seen.Add(row.ID)
			return nil, false
		}
	}

	if HasBlockedBrand(row.Title) || !IsClothing(row.Title) {
		return nil, false
	}

	brand, ok := s.catalog.Match(row.Title)
	if !ok {
		return nil, false
	}

	priceYen, err := ParsePriceYen(row.PriceText)
	if err != nil || priceYen <= 0 || priceYen > MaxPriceYen {
		return nil, false
	}

	priceUSD := s.rates.YenToUSD(ctx, priceYen)
	if priceUSD < MinPriceUSD || priceUSD > MaxPriceUSD {
		return nil, false
	}

	if IsSpam(row.Title, brand.Key()) {
		return nil, false
	}

	listing := &domain.Listing{
		AuctionID:   row.ID,
		Title:       row.Title,
		Brand:       brand.Key(),
		PriceJPY:    priceYen,
		PriceUSD:    priceUSD,
		SellerID:    row.SellerID,
		ListingURL:  row.ListingURL,
		ProxyURL:    "https://zenmarket.jp/en/auction.aspx?itemCode=" + row.ID,
		ImageURL:    row.ImageURL,
		Sizes:       ExtractSizes(row.Title),
		EndTime:     ParseEndTime(row.EndTimeText, s.now()),
		FreshNewest: sort == domain.SortNewest && page == 1,
		FoundAt:     s.now(),
	}

	scoring.Score(listing)
	if listing.Quality < QualityThreshold {
		return nil, false
	}

	// Add is the atomic claim: Contains above is only a cheap early-out,
	// and concurrent workers can pass it for the same ID. Whoever lands
	// the first Add owns the listing; everyone else drops it.
	if !s.seen.Add(listing.AuctionID) {
		return nil, false
	}
	return listing, true
}
