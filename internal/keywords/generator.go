package keywords

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"auction-sniper/internal/domain"
)

// clothingCategories are appended to brand aliases to probe garment-
// specific queries. Japanese forms included because source titles are.
var clothingCategories = []string{
	"shirt", "jacket", "pants", "hoodie", "coat", "sweater", "tee",
	"denim", "blazer", "bomber", "cargo", "trench", "vest", "knit",
	"シャツ", "ジャケット", "パンツ", "パーカー", "コート", "Tシャツ", "ニット",
}

// archiveTerms probe rarity-oriented queries. Only the first five are
// used per variant; the rest exist for future tuning.
var archiveTerms = []string{
	"archive", "rare", "vintage", "fw", "ss", "aw", "runway",
	"collection", "sample", "prototype", "limited", "exclusive",
	"アーカイブ", "レア", "ヴィンテージ", "限定", "サンプル", "コレクション",
}

// seasonYearSpan is how many years back season-year tokens reach.
const seasonYearSpan = 15

// blockedSubstrings excludes womenswear queries outright.
var blockedSubstrings = []string{"femme"}

// Generator builds the per-brand candidate keyword space. Each call
// shuffles the result so a fixed per-cycle budget eventually covers the
// whole long tail across cycles.
type Generator struct {
	seasonYears []string
	now         func() time.Time
}

// NewGenerator creates a keyword generator.
func NewGenerator() *Generator {
	g := &Generator{now: time.Now}
	g.seasonYears = g.buildSeasonYears()
	return g
}

// buildSeasonYears produces tokens like "fw08", "ss21" spanning the last
// seasonYearSpan years.
func (g *Generator) buildSeasonYears() []string {
	currentYear := g.now().Year()
	var tokens []string
	for year := currentYear - seasonYearSpan; year <= currentYear; year++ {
		yy := fmt.Sprintf("%02d", year%100)
		for _, season := range []string{"fw", "ss", "aw"} {
			tokens = append(tokens, season+yy)
		}
	}
	return tokens
}

// Generate returns the shuffled candidate keywords for one brand. The
// cycle number seeds the shuffle so the order is reproducible per cycle
// but varies across cycles.
func (g *Generator) Generate(brand *domain.Brand, cycle int) []string {
	if brand == nil || len(brand.Aliases) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(int64(cycle)))

	variants := brand.Aliases
	if len(variants) > 2 {
		variants = variants[:2]
	}

	var keywords []string
	for _, variant := range variants {
		keywords = append(keywords, variant)

		for _, category := range clothingCategories {
			keywords = append(keywords, variant+" "+category)
		}

		for _, term := range archiveTerms[:5] {
			keywords = append(keywords, variant+" "+term)
		}

		for _, season := range sample(rng, g.seasonYears, 5) {
			keywords = append(keywords, variant+" "+season)
		}
	}

	keywords = filterBlocked(keywords)
	keywords = dedup(keywords)

	rng.Shuffle(len(keywords), func(i, j int) {
		keywords[i], keywords[j] = keywords[j], keywords[i]
	})

	return keywords
}

// sample picks n distinct elements without replacement.
func sample(rng *rand.Rand, pool []string, n int) []string {
	if n >= len(pool) {
		out := make([]string, len(pool))
		copy(out, pool)
		return out
	}
	perm := rng.Perm(len(pool))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

func filterBlocked(keywords []string) []string {
	out := keywords[:0]
	for _, kw := range keywords {
		blocked := false
		lower := strings.ToLower(kw)
		for _, b := range blockedSubstrings {
			if strings.Contains(lower, b) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, kw)
		}
	}
	return out
}

func dedup(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := keywords[:0]
	for _, kw := range keywords {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
