package scheduler

import (
	"log"
	"sort"
	"time"

	"auction-sniper/internal/domain"
)

// Composite score weights. The recency step function dominates: a brand
// that produced a find in the last six hours outranks steady but stale
// performers.
const (
	weightRecency   = 0.3
	weightQuality   = 0.25
	weightFinds     = 0.25
	weightPreferred = 0.2

	findsNormalizer     = 10.0
	preferredNormalizer = 5.0
	deadNormalizer      = 10.0
	maxDeadPenalty      = 0.5
)

// rebalanceBand maps a slice of the score-sorted brand list to a tier,
// guarded by a minimum-score floor.
type rebalanceBand struct {
	start, end int // [start, end) into the sorted list; end < 0 means "rest"
	floor      float64
	tier       domain.Tier
}

var rebalanceBands = []rebalanceBand{
	{0, 2, 0.7, domain.TierPremium},
	{2, 4, 0.6, domain.TierHigh},
	{4, 8, 0.4, domain.TierMid},
	{8, 12, 0.3, domain.TierLow},
	{12, 15, 0.2, domain.TierMinimal},
	{15, -1, 0.1, domain.TierMinimal},
}

// Rebalancer recomputes tier assignments from brand performance.
type Rebalancer struct {
	catalog *domain.Catalog
	logger  *log.Logger
	now     func() time.Time
}

// NewRebalancer creates a rebalancer over the given catalog.
func NewRebalancer(catalog *domain.Catalog, logger *log.Logger) *Rebalancer {
	return &Rebalancer{catalog: catalog, logger: logger, now: time.Now}
}

// CompositeScore ranks one brand's empirical yield, clamped to >= 0.
func (r *Rebalancer) CompositeScore(perf *domain.BrandPerformance) float64 {
	if perf == nil {
		return 0
	}

	recency := 0.0
	if perf.LastSuccessMs > 0 {
		hoursSince := r.now().Sub(time.UnixMilli(perf.LastSuccessMs)).Hours()
		switch {
		case hoursSince < 6:
			recency = 1.0
		case hoursSince < 24:
			recency = 0.7
		case hoursSince < 72:
			recency = 0.4
		default:
			recency = 0.1
		}
	}

	finds := min(float64(perf.TotalFinds)/findsNormalizer, 1.0)
	preferred := min(float64(len(perf.KeywordFinds))/preferredNormalizer, 1.0)
	deadPenalty := min(float64(len(perf.DeadKeywords))/deadNormalizer, maxDeadPenalty)

	score := recency*weightRecency +
		perf.AvgDealQuality*weightQuality +
		finds*weightFinds +
		preferred*weightPreferred -
		deadPenalty

	if score < 0 {
		score = 0
	}
	return score
}

// Rebalance recomputes the tier override map. Brands are sorted by
// composite score and sliced into fixed bands; a brand moves into a
// band's tier only if its own score clears the band floor, otherwise it
// keeps its prior assignment. The returned map is complete: every
// catalog brand has an entry.
func (r *Rebalancer) Rebalance(state *domain.TrackerState) map[string]domain.Tier {
	type scoredBrand struct {
		key   string
		score float64
	}

	brands := r.catalog.Brands()
	scored := make([]scoredBrand, 0, len(brands))
	for i := range brands {
		key := brands[i].Key()
		scored = append(scored, scoredBrand{key, r.CompositeScore(state.Brands[key])})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].key < scored[j].key
	})

	assignment := make(map[string]domain.Tier, len(scored))
	for i := range brands {
		assignment[brands[i].Key()] = r.currentTier(state, &brands[i])
	}

	moved := 0
	for _, band := range rebalanceBands {
		start := band.start
		if start >= len(scored) {
			break
		}
		end := band.end
		if end < 0 || end > len(scored) {
			end = len(scored)
		}
		for _, sb := range scored[start:end] {
			if sb.score > band.floor && assignment[sb.key] != band.tier {
				assignment[sb.key] = band.tier
				moved++
			}
		}
	}

	if moved > 0 {
		r.logger.Printf("tier rebalance moved %d brands", moved)
	}
	return assignment
}

// currentTier resolves a brand's effective tier: override first, catalog
// default otherwise.
func (r *Rebalancer) currentTier(state *domain.TrackerState, b *domain.Brand) domain.Tier {
	if t, ok := state.TierOverrides[b.Key()]; ok {
		return t
	}
	return b.Tier
}

// TierFor resolves the effective tier for scheduling.
func TierFor(state *domain.TrackerState, b *domain.Brand) domain.Tier {
	if t, ok := state.TierOverrides[b.Key()]; ok {
		return t
	}
	return b.Tier
}
