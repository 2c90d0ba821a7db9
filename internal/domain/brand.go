package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Brand is one monitored designer label.
type Brand struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"` // ordered title-match strings, primary first
	Tier    Tier     `json:"tier"`    // default tier before any rebalancing
}

// Key returns the normalized lookup key for the brand
// ("Raf Simons" -> "raf_simons").
func (b *Brand) Key() string {
	return BrandKey(b.Name)
}

// BrandKey normalizes a brand name into its lookup key.
func BrandKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Catalog is the static brand set supplied at startup.
type Catalog struct {
	brands []Brand
	byKey  map[string]*Brand
}

// NewCatalog builds a catalog from a brand list.
// Returns ErrInvalidCatalog semantics via error when the list is empty or
// a brand carries no aliases.
func NewCatalog(brands []Brand) (*Catalog, error) {
	if len(brands) == 0 {
		return nil, fmt.Errorf("brand catalog is empty")
	}

	c := &Catalog{
		brands: make([]Brand, len(brands)),
		byKey:  make(map[string]*Brand, len(brands)),
	}
	copy(c.brands, brands)

	for i := range c.brands {
		b := &c.brands[i]
		if b.Name == "" {
			return nil, fmt.Errorf("brand at index %d has no name", i)
		}
		if len(b.Aliases) == 0 {
			return nil, fmt.Errorf("brand %q has no aliases", b.Name)
		}
		if !b.Tier.IsValid() {
			b.Tier = TierMinimal
		}
		c.byKey[b.Key()] = b
	}
	return c, nil
}

// LoadCatalog reads a catalog from a JSON file: either a plain brand array or
// the original map form {"Brand Name": {"aliases": [...], "tier": "..."}}.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand catalog: %w", err)
	}

	var list []Brand
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return NewCatalog(list)
	}

	var byName map[string]struct {
		Aliases []string `json:"aliases"`
		Tier    Tier     `json:"tier"`
	}
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("parse brand catalog %s: %w", path, err)
	}

	list = list[:0]
	for name, info := range byName {
		list = append(list, Brand{Name: name, Aliases: info.Aliases, Tier: info.Tier})
	}
	return NewCatalog(list)
}

// Brands returns all brands in catalog order.
func (c *Catalog) Brands() []Brand {
	out := make([]Brand, len(c.brands))
	copy(out, c.brands)
	return out
}

// Get looks up a brand by name or normalized key.
func (c *Catalog) Get(name string) (*Brand, bool) {
	b, ok := c.byKey[BrandKey(name)]
	return b, ok
}

// Len returns the number of brands in the catalog.
func (c *Catalog) Len() int {
	return len(c.brands)
}

// Match scans a listing title for any brand alias and returns the first
// matching brand. Matching is case-insensitive substring containment, the
// same predicate the alias lists were curated for.
func (c *Catalog) Match(title string) (*Brand, bool) {
	lower := strings.ToLower(title)
	for i := range c.brands {
		b := &c.brands[i]
		for _, alias := range b.Aliases {
			if strings.Contains(lower, strings.ToLower(alias)) {
				return b, true
			}
		}
	}
	return nil, false
}

// DefaultCatalog returns the built-in designer catalog with the hand-tuned
// initial tier assignment.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Brand{
		{Name: "Raf Simons", Aliases: []string{"raf simons", "ラフシモンズ", "raf by raf"}, Tier: TierPremium},
		{Name: "Rick Owens", Aliases: []string{"rick owens", "リックオウエンス", "drkshdw"}, Tier: TierPremium},
		{Name: "Maison Margiela", Aliases: []string{"margiela", "メゾンマルジェラ", "マルジェラ"}, Tier: TierHigh},
		{Name: "Jean Paul Gaultier", Aliases: []string{"jean paul gaultier", "gaultier", "ゴルチエ"}, Tier: TierHigh},
		{Name: "Yohji Yamamoto", Aliases: []string{"yohji yamamoto", "ヨウジヤマモト", "y's"}, Tier: TierMid},
		{Name: "Junya Watanabe", Aliases: []string{"junya watanabe", "ジュンヤワタナベ"}, Tier: TierMid},
		{Name: "Undercover", Aliases: []string{"undercover", "アンダーカバー"}, Tier: TierMid},
		{Name: "Vetements", Aliases: []string{"vetements", "ヴェトモン"}, Tier: TierMid},
		{Name: "Comme Des Garcons", Aliases: []string{"comme des garcons", "コムデギャルソン", "cdg"}, Tier: TierLow},
		{Name: "Martine Rose", Aliases: []string{"martine rose", "マーティンローズ"}, Tier: TierLow},
		{Name: "Balenciaga", Aliases: []string{"balenciaga", "バレンシアガ"}, Tier: TierLow},
		{Name: "Alyx", Aliases: []string{"alyx", "1017 alyx"}, Tier: TierLow},
		{Name: "Celine", Aliases: []string{"celine", "セリーヌ"}, Tier: TierMinimal},
		{Name: "Bottega Veneta", Aliases: []string{"bottega veneta", "ボッテガヴェネタ"}, Tier: TierMinimal},
		{Name: "Kiko Kostadinov", Aliases: []string{"kiko kostadinov", "キココスタディノフ"}, Tier: TierMinimal},
		{Name: "Chrome Hearts", Aliases: []string{"chrome hearts", "クロムハーツ"}, Tier: TierMinimal},
		{Name: "Prada", Aliases: []string{"prada", "プラダ"}, Tier: TierMinimal},
		{Name: "Miu Miu", Aliases: []string{"miu miu", "ミュウミュウ"}, Tier: TierMinimal},
		{Name: "Hysteric Glamour", Aliases: []string{"hysteric glamour", "ヒステリックグラマー"}, Tier: TierMinimal},
	})
	if err != nil {
		panic(err) // static data
	}
	return c
}
