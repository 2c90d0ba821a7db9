package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"auction-sniper/internal/domain"
)

func TestQuality_FlagshipArchiveTee(t *testing.T) {
	// $35 Raf Simons tee with an archive marker: market is 40*3.0 = 120,
	// far below market pushes the base past 0.8, archive + basics boosts
	// hit the cap, final clamps to 1.0.
	q := Quality(35, "raf_simons", "Raf Simons archive tee FW03")
	assert.Equal(t, 1.0, q)
}

func TestQuality_Overpriced(t *testing.T) {
	// Market for an unlisted-brand tee is $40; $100 is >= 1.5x market.
	q := Quality(100, "some_brand", "plain tee")
	assert.InDelta(t, 0.2, q, 1e-9)
}

func TestQuality_FairPrice(t *testing.T) {
	// $45 against a $40 market (unlisted brand) lands in the fair band.
	q := Quality(45, "some_brand", "plain tee")
	assert.InDelta(t, 0.5, q, 1e-9)
}

func TestQuality_BelowMarket(t *testing.T) {
	// $20 against a $40 market: 0.8 + (40-20)/40 = 1.3 -> capped base 1.0.
	q := Quality(20, "some_brand", "plain tee")
	assert.InDelta(t, 1.0, q, 1e-9)
}

func TestQuality_Bounds(t *testing.T) {
	cases := []struct {
		name  string
		price float64
		brand string
		title string
	}{
		{"free", 0, "raf_simons", "archive rare runway sample tee xl collab"},
		{"expensive unknown", 9999, "", ""},
		{"negative price", -10, "rick_owens", "jacket"},
		{"japanese title", 80, "yohji_yamamoto", "ヨウジヤマモト コート 限定"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Quality(tc.price, tc.brand, tc.title)
			assert.GreaterOrEqual(t, q, 0.0)
			assert.LessOrEqual(t, q, 1.0)
		})
	}
}

func TestQuality_GarmentReferencePrices(t *testing.T) {
	// Same brand and price, different garment types: the cheaper the
	// reference, the worse the deal looks.
	coat := Quality(100, "rick_owens", "rick owens coat")
	tee := Quality(100, "rick_owens", "rick owens tee")
	assert.Greater(t, coat, tee)
}

func TestQuality_BrandMultiplier(t *testing.T) {
	// Identical listing, stronger brand means higher market price and a
	// better relative deal.
	raf := Quality(250, "raf_simons", "plain jacket")
	unknown := Quality(250, "nobody", "plain jacket")
	assert.Greater(t, raf, unknown)
}

func TestQuality_ArchiveBoostNotCumulative(t *testing.T) {
	one := Quality(200, "hysteric_glamour", "coat archive")
	many := Quality(200, "hysteric_glamour", "coat archive rare vintage limited")
	assert.Equal(t, one, many, "only the first archive marker should count")
}

func TestQuality_ResaleBoostCap(t *testing.T) {
	// Overpriced Raf tee with every boost firing: 0.2 base + capped 0.8
	// boost = 1.0, not more.
	q := Quality(500, "raf_simons", "raf simons archive tee collab xl")
	assert.Equal(t, 1.0, q)
}

func TestMarketPrice(t *testing.T) {
	assert.InDelta(t, 120.0, MarketPrice("Raf Simons tee", "raf_simons"), 1e-9)
	assert.InDelta(t, 60.0, MarketPrice("mystery item", "nobody"), 1e-9)
}

func TestPriority_ComponentSums(t *testing.T) {
	cases := []struct {
		name    string
		listing domain.Listing
		want    float64
	}{
		{
			name:    "quality only",
			listing: domain.Listing{Title: "coat", Brand: "hysteric_glamour", PriceUSD: 300, Quality: 0.5},
			want:    50,
		},
		{
			name:    "high resale brand cheap",
			listing: domain.Listing{Title: "jacket", Brand: "rick_owens", PriceUSD: 90, Quality: 0.5},
			want:    50 + 30 + 25,
		},
		{
			name:    "mid price band",
			listing: domain.Listing{Title: "coat", Brand: "hysteric_glamour", PriceUSD: 150, Quality: 0.5},
			want:    50 + 15,
		},
		{
			name:    "archive marker",
			listing: domain.Listing{Title: "coat archive", Brand: "hysteric_glamour", PriceUSD: 300, Quality: 0.5},
			want:    50 + 30,
		},
		{
			name:    "raf basic top",
			listing: domain.Listing{Title: "raf simons tee", Brand: "raf_simons", PriceUSD: 300, Quality: 0.5},
			want:    50 + 30 + 25,
		},
		{
			name:    "fresh newest",
			listing: domain.Listing{Title: "coat", Brand: "hysteric_glamour", PriceUSD: 300, Quality: 0.5, FreshNewest: true},
			want:    50 + 50,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Priority(&tc.listing), 1e-9)
		})
	}
}

func TestScore_FillsBothFields(t *testing.T) {
	listing := &domain.Listing{
		Title:    "Raf Simons archive tee",
		Brand:    "raf_simons",
		PriceUSD: 35,
	}
	Score(listing)

	assert.Equal(t, 1.0, listing.Quality)
	assert.Greater(t, listing.Priority, 100.0)
}
