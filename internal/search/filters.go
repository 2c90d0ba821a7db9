package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// excludedItems kill a title outright: accessories, electronics, media
// and other non-garment noise that brand aliases still match.
var excludedItems = []string{
	"perfume", "cologne", "fragrance", "香水",
	"watch", "時計",
	"motorcycle", "engine", "エンジン", "cb400", "vtr250",
	"server", "raid", "pci", "computer",
	"食品", "food", "snack", "チップ",
	"財布", "バッグ", "鞄", "カバン", "ハンドバッグ", "トートバッグ", "クラッチ", "ポーチ",
	"フレグランス", "コロン", "スプレー",
	"ネックレス", "ブレスレット", "指輪", "イヤリング",
	"ベルト", "ネクタイ", "スカーフ", "手袋", "帽子", "キャップ", "ビーニー",
	"chip", "chips", "スナック",
	"poster", "ポスター", "sticker", "ステッカー", "magazine", "雑誌",
	"dvd", "book", "本", "figure", "フィギュア", "toy", "おもちゃ",
	"phone case", "ケース", "iphone", "samsung", "tech", "電子",
	"fred perry", "フレッドペリー", "femme",
}

// blockedBrandTerms are lookalike or fast-fashion brands whose names
// collide with catalog aliases.
var blockedBrandTerms = []string{
	"undercoverism", "thrasher", "gap", "adidas", "uniqlo", "gu", "zara", "h&m",
}

// IsClothing reports whether the title plausibly describes a garment.
// Anything on the exclusion list fails; everything else passes: the
// alias match already constrains the candidate space, so the filter only
// needs to strike known junk.
func IsClothing(title string) bool {
	lower := strings.ToLower(title)
	for _, excluded := range excludedItems {
		if strings.Contains(lower, excluded) {
			return false
		}
	}
	return true
}

// HasBlockedBrand reports whether the title mentions a blocked lookalike.
func HasBlockedBrand(title string) bool {
	lower := strings.ToLower(title)
	for _, blocked := range blockedBrandTerms {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

// spamPatterns strike titles no garment listing would carry: replica
// markers, printed media, damage/parts-only notes and electronics.
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(replica|fake|copy|knock.?off|bootleg|unauthorized)\b`),
	regexp.MustCompile(`(スーパーコピー|レプリカ|偽物|コピー品)`),
	regexp.MustCompile(`(?i)\b(book|magazine|catalogue|catalog|cd|dvd|poster|sticker)\b`),
	regexp.MustCompile(`(本|雑誌|カタログ|ポスター|ステッカー|写真)`),
	regexp.MustCompile(`(?i)\b(damaged|broken|parts?.only|repair|restoration)\b`),
	regexp.MustCompile(`(破損|破れ|汚れ|ダメージ|部品のみ)`),
	regexp.MustCompile(`(?i)\b(phone.?case|iphone|android|computer|laptop)\b`),
	regexp.MustCompile(`(ケース|スマホ|携帯|パソコン)`),
}

// brandSpamPatterns catch junk that only reads as spam for a specific
// brand: detached Stone Island badges, "Rick Owens style" lookalikes.
var brandSpamPatterns = map[string][]*regexp.Regexp{
	"stone_island": {
		regexp.MustCompile(`(?i)\b(badge.only|patch.only|logo.only)\b`),
		regexp.MustCompile(`(バッジのみ|ワッペンのみ)`),
	},
	"rick_owens": {
		regexp.MustCompile(`(?i)\b(inspired|style|similar)\b`),
		regexp.MustCompile(`(風|っぽい|系)`),
	},
}

var alphaChars = regexp.MustCompile(`[a-zA-Zあ-んア-ン一-龯]`)

const (
	minTitleLen   = 10
	maxTitleLen   = 200
	minAlphaRatio = 0.3
)

// IsSpam applies the title-shape heuristics: known spam markers,
// brand-specific lookalike markers, length bounds, and a minimum ratio
// of alphabetic (Latin or Japanese) characters to total characters.
func IsSpam(title, brandKey string) bool {
	if title == "" {
		return true
	}

	for _, pattern := range spamPatterns {
		if pattern.MatchString(title) {
			return true
		}
	}
	for _, pattern := range brandSpamPatterns[brandKey] {
		if pattern.MatchString(title) {
			return true
		}
	}

	runes := []rune(title)
	if len(runes) < minTitleLen || len(runes) > maxTitleLen {
		return true
	}

	alpha := len(alphaChars.FindAllString(title, -1))
	return float64(alpha)/float64(len(runes)) < minAlphaRatio
}

var sizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(xs|s|m|l|xl|xxl|xxxl)\b`),
	regexp.MustCompile(`\b(small|medium|large|x-large|xx-large)\b`),
	regexp.MustCompile(`\b(44|46|48|50|52|54|56)\b`),
	regexp.MustCompile(`サイズ\s*([SMLsml])`),
	regexp.MustCompile(`size\s*[:：]\s*(\w+)`),
}

// ExtractSizes pulls garment sizes out of a title, deduplicated.
func ExtractSizes(title string) []string {
	lower := strings.ToLower(title)

	seen := make(map[string]struct{})
	var sizes []string
	for _, pattern := range sizePatterns {
		for _, m := range pattern.FindAllStringSubmatch(lower, -1) {
			size := m[1]
			if _, ok := seen[size]; ok {
				continue
			}
			seen[size] = struct{}{}
			sizes = append(sizes, size)
		}
	}
	return sizes
}

var priceDigits = regexp.MustCompile(`[0-9]+`)

// ParsePriceYen extracts an integer yen amount from price text like
// "¥12,500" or "12500円".
func ParsePriceYen(text string) (int64, error) {
	cleaned := strings.ReplaceAll(text, ",", "")
	digits := priceDigits.FindAllString(cleaned, -1)
	if len(digits) == 0 {
		return 0, fmt.Errorf("no digits in price text %q", text)
	}
	yen, err := strconv.ParseInt(strings.Join(digits, ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	return yen, nil
}

var (
	endHours   = regexp.MustCompile(`(\d+)\s*時間`)
	endMinutes = regexp.MustCompile(`(\d+)\s*分`)
)

// ParseEndTime converts a relative Japanese countdown ("3時間25分") into
// an absolute timestamp. Returns nil when the text carries no countdown.
func ParseEndTime(text string, now time.Time) *time.Time {
	if !strings.Contains(text, "時間") && !strings.Contains(text, "分") {
		return nil
	}

	var hours, minutes int
	if m := endHours.FindStringSubmatch(text); m != nil {
		hours, _ = strconv.Atoi(m[1])
	}
	if m := endMinutes.FindStringSubmatch(text); m != nil {
		minutes, _ = strconv.Atoi(m[1])
	}
	if hours == 0 && minutes == 0 {
		return nil
	}

	end := now.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)
	return &end
}
