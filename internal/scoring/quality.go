// Package scoring turns a candidate listing into a deal-quality score and
// a delivery priority. The tables are hand-tuned against observed resale
// behavior; changing a weight changes which listings get delivered first.
package scoring

import (
	"strings"

	"auction-sniper/internal/domain"
)

// Quality score boundaries relative to the inferred market price.
const (
	overpricedQuality = 0.2
	fairQuality       = 0.5
	belowMarketBase   = 0.8

	maxResaleBoost = 0.8
)

// garmentPrice pairs title markers with a USD reference price.
type garmentPrice struct {
	markers []string
	price   float64
}

// Checked in order; first match wins. Japanese markers matter because
// most source titles are untranslated.
var garmentPrices = []garmentPrice{
	{[]string{"tee", "t-shirt", "シャツ", "tシャツ"}, 40},
	{[]string{"shirt", "button", "dress shirt"}, 60},
	{[]string{"jacket", "blazer", "ジャケット"}, 120},
	{[]string{"coat", "outerwear", "コート"}, 150},
	{[]string{"hoodie", "sweatshirt", "パーカー"}, 80},
	{[]string{"pants", "trousers", "jeans", "パンツ"}, 80},
}

const defaultGarmentPrice = 60

// brandMultipliers scales the garment reference price by brand
// desirability. Unlisted brands get 1.0.
var brandMultipliers = map[string]float64{
	"raf_simons":         3.0,
	"rick_owens":         2.5,
	"maison_margiela":    2.2,
	"jean_paul_gaultier": 2.0,
	"yohji_yamamoto":     1.8,
	"junya_watanabe":     1.6,
	"comme_des_garcons":  1.5,
	"undercover":         1.4,
	"martine_rose":       1.5,
	"miu_miu":            1.3,
	"vetements":          1.4,
	"balenciaga":         1.3,
	"chrome_hearts":      1.4,
	"celine":             1.2,
	"bottega_veneta":     1.2,
	"alyx":               1.3,
	"kiko_kostadinov":    1.3,
	"prada":              1.2,
	"hysteric_glamour":   1.0,
}

// archiveMarkers flag rarity or archive value in a title. Only the first
// match contributes to the boost.
var archiveMarkers = []string{
	"archive", "rare", "vintage", "fw", "ss", "runway", "campaign",
	"limited", "exclusive", "sample", "prototype", "deadstock",
	"アーカイブ", "レア", "ヴィンテージ", "限定", "サンプル",
	"collaboration", "collab", "コラボ",
}

var collabMarkers = []string{"collaboration", "collab", "x ", " x ", "コラボ"}

var sizeMarkers = []string{"xl", "xxl", "large", "l ", "50", "52", "54"}

// Quality scores how good a deal the listing is, in [0, 1]. Brand is the
// normalized key form (see domain.BrandKey).
func Quality(priceUSD float64, brand, title string) float64 {
	titleLower := strings.ToLower(title)

	market := marketPrice(titleLower, brand)

	var base float64
	switch {
	case priceUSD >= market*1.5:
		base = overpricedQuality
	case priceUSD >= market:
		base = fairQuality
	default:
		base = belowMarketBase + (market-priceUSD)/market
		if base > 1.0 {
			base = 1.0
		}
	}

	quality := base + resaleBoost(titleLower, brand)
	if quality > 1.0 {
		quality = 1.0
	}
	if quality < 0.0 {
		quality = 0.0
	}
	return quality
}

// MarketPrice exposes the inferred fair-market reference for a listing.
func MarketPrice(title, brand string) float64 {
	return marketPrice(strings.ToLower(title), brand)
}

func marketPrice(titleLower, brand string) float64 {
	base := float64(defaultGarmentPrice)
	for _, g := range garmentPrices {
		if containsAny(titleLower, g.markers) {
			base = g.price
			break
		}
	}

	mult, ok := brandMultipliers[domain.BrandKey(brand)]
	if !ok {
		mult = 1.0
	}
	return base * mult
}

// resaleBoost adds value signals on top of the price-based score,
// capped at maxResaleBoost.
func resaleBoost(titleLower, brand string) float64 {
	boost := 0.0

	for _, marker := range archiveMarkers {
		if strings.Contains(titleLower, marker) {
			boost += 0.4
			break
		}
	}

	brandLower := strings.ToLower(brand)
	switch {
	case strings.Contains(brandLower, "raf"):
		if containsAny(titleLower, []string{"tee", "t-shirt", "shirt", "シャツ", "tシャツ"}) {
			boost += 0.4
		} else if containsAny(titleLower, []string{"jacket", "hoodie", "sweater", "pants"}) {
			boost += 0.25
		}
	case strings.Contains(brandLower, "rick"):
		boost += 0.2
	case containsAny(brandLower, []string{"margiela", "gaultier", "yohji", "junya"}):
		boost += 0.15
	}

	if containsAny(titleLower, collabMarkers) {
		boost += 0.2
	}

	if containsAny(titleLower, sizeMarkers) {
		boost += 0.05
	}

	if boost > maxResaleBoost {
		boost = maxResaleBoost
	}
	return boost
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
