package scoring

import (
	"strings"

	"auction-sniper/internal/domain"
)

// highResaleBrands get a flat priority bump regardless of price.
var highResaleBrands = []string{"raf_simons", "rick_owens", "margiela", "martine_rose"}

// priorityArchiveMarkers is narrower than the quality-boost list: only the
// strongest rarity signals affect delivery order.
var priorityArchiveMarkers = []string{"archive", "rare", "fw", "ss", "アーカイブ", "レア"}

// Priority orders listings for delivery within a cycle, highest first.
// It assumes listing.Quality is already computed.
func Priority(listing *domain.Listing) float64 {
	titleLower := strings.ToLower(listing.Title)
	brandKey := domain.BrandKey(listing.Brand)

	priority := listing.Quality * 100

	for _, hrb := range highResaleBrands {
		if strings.Contains(brandKey, hrb) {
			priority += 30
			break
		}
	}

	if listing.PriceUSD <= 100 {
		priority += 25
	} else if listing.PriceUSD <= 200 {
		priority += 15
	}

	if containsAny(titleLower, priorityArchiveMarkers) {
		priority += 30
	}

	if strings.Contains(brandKey, "raf") && containsAny(titleLower, []string{"tee", "t-shirt", "shirt"}) {
		priority += 25
	}

	if listing.FreshNewest {
		priority += 50
	}

	return priority
}

// Score fills in both scores on a listing.
func Score(listing *domain.Listing) {
	listing.Quality = Quality(listing.PriceUSD, listing.Brand, listing.Title)
	listing.Priority = Priority(listing)
}
