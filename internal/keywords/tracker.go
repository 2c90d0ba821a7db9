// Package keywords owns the per-keyword learning loop: recording search
// outcomes, classifying keywords as hot or dead, reviving dead keywords
// after a cooldown, and ranking keywords per brand for future cycles.
package keywords

import (
	"log"
	"sort"
	"time"

	"auction-sniper/internal/domain"
)

// Thresholds governing keyword lifecycle.
const (
	// DeadThreshold is the consecutive zero-find searches after which a
	// keyword is excluded from scheduling.
	DeadThreshold = 15

	// RevivalThreshold is how many cycles a keyword stays dead before it
	// is re-probed. Market conditions change; nothing is dead forever.
	RevivalThreshold = 50
)

// Tracker applies search outcomes to the persisted learning state. All
// methods mutate serially: the orchestrator calls them after joining
// worker results, so no locking is needed here.
type Tracker struct {
	state   *domain.TrackerState
	catalog *domain.Catalog
	logger  *log.Logger
	now     func() time.Time
}

// NewTracker wraps an existing state document. Callers load the state
// from a StateStore (or start fresh) before constructing the tracker.
func NewTracker(state *domain.TrackerState, catalog *domain.Catalog, logger *log.Logger) *Tracker {
	return &Tracker{
		state:   state,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// State returns the underlying document for persistence.
func (t *Tracker) State() *domain.TrackerState {
	return t.state
}

// RecordResult folds one search outcome into the keyword and brand stats.
// Latency smoothing is (old+new)/2, a cheap exponential-ish decay rather
// than a true mean; recent samples dominate quickly.
func (t *Tracker) RecordResult(keyword, brand string, finds int, latency time.Duration, avgQuality float64) {
	now := t.now()
	nowMs := now.UnixMilli()

	stat, ok := t.state.Keywords[keyword]
	if !ok {
		stat = &domain.KeywordStat{}
		t.state.Keywords[keyword] = stat
	}

	stat.Searches++
	stat.Finds += finds
	stat.AvgLatencySec = (stat.AvgLatencySec + latency.Seconds()) / 2
	stat.LastSearchedMs = nowMs

	if finds > 0 {
		stat.ConsecutiveFails = 0
		stat.CyclesDead = 0
		if avgQuality > 0 {
			stat.QualitySum += avgQuality * float64(finds)
		}
		t.markHot(keyword)
		t.removeDead(keyword)
		t.creditBrand(brand, keyword, finds, avgQuality, nowMs)
		return
	}

	stat.ConsecutiveFails++
	t.unmarkHot(keyword)
	if stat.ConsecutiveFails >= DeadThreshold {
		if t.markDead(keyword) {
			t.logger.Printf("keyword dead after %d failed searches: %q (brand %s)", stat.ConsecutiveFails, keyword, brand)
		}
		if perf, ok := t.state.Brands[domain.BrandKey(brand)]; ok {
			perf.DeadKeywords = appendUnique(perf.DeadKeywords, keyword)
		}
	}
}

// creditBrand attributes finds to the (brand, keyword) pair and folds the
// cycle's average quality into the brand's running find-weighted average.
func (t *Tracker) creditBrand(brand, keyword string, finds int, avgQuality float64, nowMs int64) {
	key := domain.BrandKey(brand)
	perf, ok := t.state.Brands[key]
	if !ok {
		perf = &domain.BrandPerformance{KeywordFinds: make(map[string]int)}
		t.state.Brands[key] = perf
	}
	if perf.KeywordFinds == nil {
		perf.KeywordFinds = make(map[string]int)
	}

	prevFinds := perf.TotalFinds
	perf.TotalFinds += finds
	perf.LastSuccessMs = nowMs
	perf.KeywordFinds[keyword] += finds
	perf.DeadKeywords = remove(perf.DeadKeywords, keyword)

	if avgQuality > 0 && perf.TotalFinds > 0 {
		perf.AvgDealQuality = (perf.AvgDealQuality*float64(prevFinds) + avgQuality*float64(finds)) / float64(perf.TotalFinds)
	}
}

// AdvanceCycle ages every dead keyword by one cycle and revives those
// past the revival threshold. Called once per cycle by the orchestrator.
func (t *Tracker) AdvanceCycle() {
	t.state.Cycle++
	t.state.LastUpdatedMs = t.now().UnixMilli()

	var still []string
	for _, keyword := range t.state.DeadKeywords {
		stat, ok := t.state.Keywords[keyword]
		if !ok {
			continue
		}
		stat.CyclesDead++
		if stat.CyclesDead >= RevivalThreshold {
			stat.CyclesDead = 0
			stat.ConsecutiveFails = 0
			t.logger.Printf("reviving keyword: %q", keyword)
			continue
		}
		still = append(still, keyword)
	}
	t.state.DeadKeywords = still
}

// Cycle returns the current global cycle counter.
func (t *Tracker) Cycle() int {
	return t.state.Cycle
}

// IsDead reports whether the keyword is currently excluded from scheduling.
func (t *Tracker) IsDead(keyword string) bool {
	for _, k := range t.state.DeadKeywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// ShouldRevive reports whether a dead keyword has cooled down enough to
// re-probe, and revives it if so. Unknown keywords are always eligible.
func (t *Tracker) ShouldRevive(keyword string) bool {
	stat, ok := t.state.Keywords[keyword]
	if !ok {
		return true
	}
	if stat.CyclesDead >= RevivalThreshold {
		stat.CyclesDead = 0
		stat.ConsecutiveFails = 0
		t.state.DeadKeywords = remove(t.state.DeadKeywords, keyword)
		return true
	}
	return false
}

// BestForBrand ranks the brand's credited keywords by cumulative finds
// descending, skipping dead ones, and pads with deterministic fallbacks
// when history is thin.
func (t *Tracker) BestForBrand(brand string, maxCount int) []string {
	if maxCount <= 0 {
		return nil
	}

	type scored struct {
		keyword string
		finds   int
	}

	var active []scored
	if perf, ok := t.state.Brands[domain.BrandKey(brand)]; ok {
		for keyword, finds := range perf.KeywordFinds {
			if !t.IsDead(keyword) || t.ShouldRevive(keyword) {
				active = append(active, scored{keyword, finds})
			}
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].finds != active[j].finds {
			return active[i].finds > active[j].finds
		}
		return active[i].keyword < active[j].keyword
	})

	best := make([]string, 0, maxCount)
	for _, s := range active {
		if len(best) == maxCount {
			break
		}
		best = append(best, s.keyword)
	}

	for _, fb := range t.fallbackKeywords(brand) {
		if len(best) == maxCount {
			break
		}
		best = appendUnique(best, fb)
	}
	return best
}

// HotKeywords returns keywords that recently produced finds.
func (t *Tracker) HotKeywords() []string {
	out := make([]string, len(t.state.HotKeywords))
	copy(out, t.state.HotKeywords)
	return out
}

// fallbackKeywords builds generic queries from the brand's primary alias.
func (t *Tracker) fallbackKeywords(brand string) []string {
	b, ok := t.catalog.Get(brand)
	if !ok || len(b.Aliases) == 0 {
		return []string{domain.BrandKey(brand)}
	}

	primary := b.Aliases[0]
	fallbacks := []string{
		primary,
		primary + " archive",
		primary + " jacket",
		primary + " shirt",
		primary + " rare",
		primary + " vintage",
		primary + " fw",
		primary + " ss",
	}
	if len(b.Aliases) > 1 {
		fallbacks = append(fallbacks, b.Aliases[1])
	}
	return fallbacks
}

func (t *Tracker) markHot(keyword string) {
	t.state.HotKeywords = appendUnique(t.state.HotKeywords, keyword)
}

func (t *Tracker) unmarkHot(keyword string) {
	t.state.HotKeywords = remove(t.state.HotKeywords, keyword)
}

// markDead reports whether the keyword was newly added to the dead set.
func (t *Tracker) markDead(keyword string) bool {
	before := len(t.state.DeadKeywords)
	t.state.DeadKeywords = appendUnique(t.state.DeadKeywords, keyword)
	return len(t.state.DeadKeywords) > before
}

func (t *Tracker) removeDead(keyword string) {
	t.state.DeadKeywords = remove(t.state.DeadKeywords, keyword)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
