package scheduler

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-sniper/internal/domain"
)

func newTestRebalancer(t *testing.T, now time.Time) *Rebalancer {
	t.Helper()
	r := NewRebalancer(domain.DefaultCatalog(), log.New(io.Discard, "[scheduler] ", log.LstdFlags))
	r.now = func() time.Time { return now }
	return r
}

func TestCompositeScore_Components(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRebalancer(t, now)

	perf := &domain.BrandPerformance{
		TotalFinds:     10,
		AvgDealQuality: 0.8,
		LastSuccessMs:  now.Add(-2 * time.Hour).UnixMilli(),
		KeywordFinds:   map[string]int{"a": 5, "b": 3, "c": 1, "d": 1, "e": 1},
	}

	// 1.0*0.3 + 0.8*0.25 + 1.0*0.25 + 1.0*0.2 = 0.95
	assert.InDelta(t, 0.95, r.CompositeScore(perf), 1e-9)
}

func TestCompositeScore_RecencySteps(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRebalancer(t, now)

	cases := []struct {
		name string
		ago  time.Duration
		want float64
	}{
		{"under 6h", 2 * time.Hour, 1.0},
		{"under 24h", 12 * time.Hour, 0.7},
		{"under 72h", 48 * time.Hour, 0.4},
		{"ancient", 200 * time.Hour, 0.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			perf := &domain.BrandPerformance{LastSuccessMs: now.Add(-tc.ago).UnixMilli()}
			assert.InDelta(t, tc.want*weightRecency, r.CompositeScore(perf), 1e-9)
		})
	}
}

func TestCompositeScore_DeadPenaltyCapped(t *testing.T) {
	now := time.Now()
	r := newTestRebalancer(t, now)

	dead := make([]string, 30)
	for i := range dead {
		dead[i] = "kw"
	}
	perf := &domain.BrandPerformance{
		TotalFinds:     10,
		AvgDealQuality: 1.0,
		LastSuccessMs:  now.UnixMilli(),
		DeadKeywords:   dead,
	}

	// Full components: 0.3 + 0.25 + 0.25 = 0.8 (no preferred keywords)
	// minus capped penalty 0.5.
	assert.InDelta(t, 0.3, r.CompositeScore(perf), 1e-2)
}

func TestCompositeScore_NeverNegative(t *testing.T) {
	r := newTestRebalancer(t, time.Now())

	perf := &domain.BrandPerformance{DeadKeywords: []string{"a", "b", "c", "d", "e"}}
	assert.GreaterOrEqual(t, r.CompositeScore(perf), 0.0)
	assert.Equal(t, 0.0, r.CompositeScore(nil))
}

func TestRebalance_PromotesHighScorer(t *testing.T) {
	now := time.Now()
	r := newTestRebalancer(t, now)
	state := domain.NewTrackerState()

	// Undercover starts in Mid; give it a score clearing the premium floor.
	state.Brands["undercover"] = &domain.BrandPerformance{
		TotalFinds:     20,
		AvgDealQuality: 0.9,
		LastSuccessMs:  now.UnixMilli(),
		KeywordFinds:   map[string]int{"a": 10, "b": 5, "c": 3, "d": 1, "e": 1},
	}

	assignment := r.Rebalance(state)
	assert.Equal(t, domain.TierPremium, assignment["undercover"])
}

func TestRebalance_FloorFailureKeepsPriorTier(t *testing.T) {
	r := newTestRebalancer(t, time.Now())
	state := domain.NewTrackerState()

	// No performance data: every composite score is 0, nothing clears any
	// floor, so every brand keeps its catalog tier.
	assignment := r.Rebalance(state)

	for _, b := range domain.DefaultCatalog().Brands() {
		got, ok := assignment[b.Key()]
		require.True(t, ok, "assignment must cover every brand")
		assert.Equal(t, b.Tier, got, "brand %s should keep its prior tier", b.Name)
	}
}

func TestRebalance_RespectsExistingOverrides(t *testing.T) {
	r := newTestRebalancer(t, time.Now())
	state := domain.NewTrackerState()
	state.TierOverrides["prada"] = domain.TierHigh

	assignment := r.Rebalance(state)
	assert.Equal(t, domain.TierHigh, assignment["prada"], "prior override is the baseline when no band floor is cleared")
}

func TestTierFor(t *testing.T) {
	catalog := domain.DefaultCatalog()
	state := domain.NewTrackerState()

	raf, ok := catalog.Get("Raf Simons")
	require.True(t, ok)
	assert.Equal(t, domain.TierPremium, TierFor(state, raf))

	state.TierOverrides[raf.Key()] = domain.TierLow
	assert.Equal(t, domain.TierLow, TierFor(state, raf))
}
