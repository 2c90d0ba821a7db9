package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsClothing(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Raf Simons archive jacket", true},
		{"Rick Owens 時計", false},
		{"Margiela perfume 50ml", false},
		{"Yohji Yamamoto ポスター", false},
		{"Undercover iphone ケース", false},
		{"ラフシモンズ コート", true},
		{"mystery listing with no garment words", true},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, IsClothing(tc.title))
		})
	}
}

func TestHasBlockedBrand(t *testing.T) {
	assert.True(t, HasBlockedBrand("Undercoverism jacket"))
	assert.True(t, HasBlockedBrand("UNIQLO x Margiela tee"))
	assert.False(t, HasBlockedBrand("Undercover jacket"))
}

func TestExtractSizes(t *testing.T) {
	sizes := ExtractSizes("Raf Simons tee size: XL 48")
	assert.Contains(t, sizes, "xl")
	assert.Contains(t, sizes, "48")

	assert.Empty(t, ExtractSizes("no sizing info here"))
}

func TestParsePriceYen(t *testing.T) {
	cases := []struct {
		text string
		want int64
	}{
		{"¥12,500", 12500},
		{"12500円", 12500},
		{"3,000", 3000},
	}
	for _, tc := range cases {
		got, err := ParsePriceYen(tc.text)
		require.NoError(t, err, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}

	_, err := ParsePriceYen("sold out")
	assert.Error(t, err)
}

func TestParseEndTime(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	end := ParseEndTime("3時間25分", now)
	require.NotNil(t, end)
	assert.Equal(t, now.Add(3*time.Hour+25*time.Minute), *end)

	end = ParseEndTime("45分", now)
	require.NotNil(t, end)
	assert.Equal(t, now.Add(45*time.Minute), *end)

	assert.Nil(t, ParseEndTime("8/15 21:00", now), "absolute dates are not parsed")
	assert.Nil(t, ParseEndTime("", now))
}

func TestIsSpam(t *testing.T) {
	cases := []struct {
		name  string
		title string
		brand string
		want  bool
	}{
		{"clean listing", "raf simons archive bomber jacket fw03", "raf_simons", false},
		{"empty title", "", "raf_simons", true},
		{"replica marker", "raf simons bomber jacket replica", "raf_simons", true},
		{"japanese copy marker", "ラフシモンズ スーパーコピー ジャケット", "raf_simons", true},
		{"printed media", "raf simons photo book collection", "raf_simons", true},
		{"parts only", "stone island jacket parts only", "stone_island", true},
		{"too short", "raf tee", "raf_simons", true},
		{"low alpha ratio", "1234567890 !!! 999 raf", "raf_simons", true},
		{"rick owens lookalike", "rick owens style leather jacket", "rick_owens", true},
		{"style marker is brand specific", "margiela artisanal style jacket", "margiela", false},
		{"stone island badge only", "stone island badge only authentic", "stone_island", true},
		{"cdg not struck by cd token", "cdg comme des garcons hoodie", "comme_des_garcons", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSpam(tc.title, tc.brand), tc.title)
		})
	}
}

func TestIsSpam_TitleLengthBounds(t *testing.T) {
	long := strings.Repeat("raf simons jacket ", 20) // > 200 chars
	assert.True(t, IsSpam(long, "raf_simons"))
	assert.False(t, IsSpam("raf simons jacket", "raf_simons"))
}
