package domain

// KeywordStat is the rolling record for one search keyword.
// Timestamps are Unix milliseconds.
type KeywordStat struct {
	Searches         int     `json:"searches"`
	Finds            int     `json:"finds"`
	AvgLatencySec    float64 `json:"avg_latency_sec"` // (old+new)/2 smoothing, see tracker
	ConsecutiveFails int     `json:"consecutive_fails"`
	CyclesDead       int     `json:"cycles_dead"`
	LastSearchedMs   int64   `json:"last_searched_ms"`
	QualitySum       float64 `json:"quality_sum"`
}

// BrandPerformance aggregates empirical yield for one brand.
type BrandPerformance struct {
	TotalFinds     int     `json:"total_finds"`
	AvgDealQuality float64 `json:"avg_deal_quality"` // running find-weighted average
	LastSuccessMs  int64   `json:"last_success_ms"`  // 0 = never

	// KeywordFinds credits keywords that produced finds for this brand.
	KeywordFinds map[string]int `json:"keyword_finds"`

	// DeadKeywords lists this brand's keywords currently marked dead.
	DeadKeywords []string `json:"dead_keywords"`
}

// TrackerState is the single persisted learning document: everything the
// scheduler and keyword tracker need to survive a restart.
type TrackerState struct {
	Cycle         int                          `json:"cycle"`
	Keywords      map[string]*KeywordStat      `json:"keyword_performance"`
	Brands        map[string]*BrandPerformance `json:"brand_performance"`
	DeadKeywords  []string                     `json:"dead_keywords"`
	HotKeywords   []string                     `json:"hot_keywords"`
	TierOverrides map[string]Tier              `json:"tier_overrides"` // brand name -> rebalanced tier
	LastUpdatedMs int64                        `json:"last_updated_ms"`
}

// NewTrackerState returns an empty state document.
func NewTrackerState() *TrackerState {
	return &TrackerState{
		Keywords:      make(map[string]*KeywordStat),
		Brands:        make(map[string]*BrandPerformance),
		TierOverrides: make(map[string]Tier),
	}
}

// CycleStats is one cycle's summary row, persisted for analytics.
type CycleStats struct {
	Cycle        int     `json:"cycle"`
	TimestampMs  int64   `json:"timestamp_ms"`
	Searches     int     `json:"searches"`
	Found        int     `json:"found"`
	Delivered    int     `json:"delivered"`
	Errors       int     `json:"errors"`
	DurationSec  float64 `json:"duration_sec"`
	Efficiency   float64 `json:"efficiency"` // delivered / searches
	LowVolume    bool    `json:"low_volume"`
	SeenSetSize  int     `json:"seen_set_size"`
	ExchangeRate float64 `json:"exchange_rate"`
}
