// Package scheduler decides which brands get searched each cycle and how
// hard: per-tier budgets, frequency divisors, low-volume escalation, and
// periodic performance-driven tier rebalancing.
package scheduler

import (
	"time"

	"auction-sniper/internal/domain"
)

// Low-volume adaptive caps. When yield is poor the budgets double and the
// inter-request delay halves, traded against politeness.
const (
	maxAdaptiveKeywords = 20
	maxAdaptivePages    = 10
	minAdaptiveDelay    = 300 * time.Millisecond

	// lowVolumeDeliveries is the per-cycle delivery count at or below
	// which a cycle counts as low volume.
	lowVolumeDeliveries = 5

	// lowVolumeCycles is how many consecutive low cycles flip the flag.
	lowVolumeCycles = 2
)

// DefaultTierConfigs returns the hand-tuned per-tier search budgets.
// Premium burns the most budget and polls every cycle with three sort
// orders; Minimal polls every other cycle with one.
func DefaultTierConfigs() map[domain.Tier]domain.TierConfig {
	return map[domain.Tier]domain.TierConfig{
		domain.TierPremium: {
			BaseKeywords: 12,
			BasePages:    8,
			Frequency:    1,
			Delay:        500 * time.Millisecond,
			SortOrders:   []domain.SortOrder{domain.SortNewest, domain.SortLowestBid, domain.SortEndingSoon},
		},
		domain.TierHigh: {
			BaseKeywords: 10,
			BasePages:    6,
			Frequency:    1,
			Delay:        800 * time.Millisecond,
			SortOrders:   []domain.SortOrder{domain.SortNewest, domain.SortLowestBid},
		},
		domain.TierMid: {
			BaseKeywords: 8,
			BasePages:    5,
			Frequency:    1,
			Delay:        time.Second,
			SortOrders:   []domain.SortOrder{domain.SortNewest, domain.SortLowestBid},
		},
		domain.TierLow: {
			BaseKeywords: 7,
			BasePages:    4,
			Frequency:    1,
			Delay:        1500 * time.Millisecond,
			SortOrders:   []domain.SortOrder{domain.SortNewest},
		},
		domain.TierMinimal: {
			BaseKeywords: 5,
			BasePages:    3,
			Frequency:    2,
			Delay:        2500 * time.Millisecond,
			SortOrders:   []domain.SortOrder{domain.SortNewest},
		},
	}
}

// ShouldSearch reports whether a tier is due on the given cycle. A tier
// with frequency N runs only when cycle mod N == 0.
func ShouldSearch(cfg domain.TierConfig, cycle int) bool {
	if cfg.Frequency <= 1 {
		return true
	}
	return cycle%cfg.Frequency == 0
}

// AdaptiveConfig returns the effective budgets for a tier, doubled (with
// caps) and with halved delay (with floor) when low-volume mode is on.
func AdaptiveConfig(cfg domain.TierConfig, lowVolume bool) domain.TierConfig {
	if !lowVolume {
		return cfg
	}

	out := cfg
	out.BaseKeywords = min(maxAdaptiveKeywords, cfg.BaseKeywords*2)
	out.BasePages = min(maxAdaptivePages, cfg.BasePages*2)
	out.Delay = cfg.Delay / 2
	if out.Delay < minAdaptiveDelay {
		out.Delay = minAdaptiveDelay
	}
	return out
}

// LowVolumeDetector tracks consecutive weak cycles. A cycle delivering
// more than the threshold resets it immediately.
type LowVolumeDetector struct {
	consecutive int
}

// Observe records one cycle's delivery count and returns the current flag.
func (d *LowVolumeDetector) Observe(delivered int) bool {
	if delivered <= lowVolumeDeliveries {
		d.consecutive++
	} else {
		d.consecutive = 0
	}
	return d.IsLowVolume()
}

// IsLowVolume reports the flag without observing a new cycle.
func (d *LowVolumeDetector) IsLowVolume() bool {
	return d.consecutive >= lowVolumeCycles
}
