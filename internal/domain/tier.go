package domain

import "time"

// Tier is a scheduling bucket grouping brands with similar search budgets.
type Tier string

const (
	TierPremium Tier = "premium"
	TierHigh    Tier = "high"
	TierMid     Tier = "mid"
	TierLow     Tier = "low"
	TierMinimal Tier = "minimal"
)

// String returns the string representation of Tier.
func (t Tier) String() string {
	return string(t)
}

// IsValid checks if the tier is a known value.
func (t Tier) IsValid() bool {
	switch t {
	case TierPremium, TierHigh, TierMid, TierLow, TierMinimal:
		return true
	}
	return false
}

// Tiers lists all tiers from most to least intensively searched.
var Tiers = []Tier{TierPremium, TierHigh, TierMid, TierLow, TierMinimal}

// TierConfig is the search budget attached to one tier.
type TierConfig struct {
	BaseKeywords int           // keyword budget per brand per cycle
	BasePages    int           // pagination depth per search
	Frequency    int           // search this tier only every Nth cycle
	Delay        time.Duration // inter-request delay inside the tier
	SortOrders   []SortOrder   // sort orders dispatched concurrently
}
