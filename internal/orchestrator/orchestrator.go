// Package orchestrator runs the outer scan loop.
// Each cycle: scheduling → searching → scoring/dedup → delivering →
// persisting → sleeping. Workers return values; every tracker mutation
// happens here, serially, after the join.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/keywords"
	"auction-sniper/internal/notify"
	"auction-sniper/internal/observability"
	"auction-sniper/internal/scheduler"
	"auction-sniper/internal/search"
	"auction-sniper/internal/storage"
)

const (
	// RebalanceEvery recomputes tier assignments on every Nth cycle.
	RebalanceEvery = 10

	// EpochClearEvery wipes the seen-ID set on every Nth cycle so
	// long-lived listings can be rediscovered.
	EpochClearEvery = 25

	// BaseSleep is the starting inter-cycle sleep.
	BaseSleep = 300 * time.Second

	// MinSleep floors the effective sleep after subtracting cycle time.
	MinSleep = 120 * time.Second

	// MaxSleep caps the adapted sleep after repeated dry cycles.
	MaxSleep = 600 * time.Second

	sleepStep = 60 * time.Second

	// efficiency = delivered / searches
	highEfficiency = 0.2
	lowEfficiency  = 0.05

	// DeliveryPause spaces consecutive deliveries, keeping the
	// downstream notifier under its rate limits.
	DeliveryPause = 500 * time.Millisecond

	// emergencyMaxFailures is the consecutive all-error search count
	// that pauses the next cycle.
	emergencyMaxFailures = 10
)

// emergencyGate pauses searching after a run of total failures, which in
// practice means the source is blocking or down and hammering it makes
// things worse. Any successful search disengages it.
type emergencyGate struct {
	failures int
	active   bool
}

// Observe records one search outcome.
func (g *emergencyGate) Observe(failed bool) {
	if !failed {
		g.failures = 0
		g.active = false
		return
	}
	g.failures++
	if g.failures >= emergencyMaxFailures {
		g.active = true
	}
}

// Active reports whether the next cycle should be skipped.
func (g *emergencyGate) Active() bool {
	return g.active
}

// reset clears the gate after a skipped cycle so the next one probes.
func (g *emergencyGate) reset() {
	g.failures = 0
	g.active = false
}

// StatsNotifier optionally receives end-of-cycle summaries.
// *notify.WebhookNotifier satisfies it.
type StatsNotifier interface {
	DeliverStats(ctx context.Context, stats domain.CycleStats) bool
}

// Orchestrator coordinates one scan cycle end to end.
type Orchestrator struct {
	catalog     *domain.Catalog
	tracker     *keywords.Tracker
	generator   *keywords.Generator
	rebalancer  *scheduler.Rebalancer
	tierConfigs map[domain.Tier]domain.TierConfig

	pool     *search.Pool
	rates    search.RateSource
	notifier notify.Notifier

	seen       storage.SeenStore
	stateStore storage.StateStore
	processed  storage.ProcessedStore // optional
	statStore  storage.CycleStatStore // optional
	stats      StatsNotifier          // optional

	lowVolume scheduler.LowVolumeDetector
	emergency emergencyGate

	sleep         time.Duration
	deliveryPause time.Duration
	logger        *log.Logger
	now           func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	// Required collaborators
	Catalog  *domain.Catalog
	Tracker  *keywords.Tracker
	Pool     *search.Pool
	Rates    search.RateSource
	Notifier notify.Notifier

	// Required stores
	Seen  storage.SeenStore
	State storage.StateStore

	// Optional stores and sinks
	Processed storage.ProcessedStore
	Stats     storage.CycleStatStore
	StatsSink StatsNotifier

	// Optional overrides
	TierConfigs   map[domain.Tier]domain.TierConfig
	DeliveryPause time.Duration
	Logger        *log.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	tierConfigs := opts.TierConfigs
	if tierConfigs == nil {
		tierConfigs = scheduler.DefaultTierConfigs()
	}
	deliveryPause := opts.DeliveryPause
	if deliveryPause <= 0 {
		deliveryPause = DeliveryPause
	}

	return &Orchestrator{
		catalog:       opts.Catalog,
		tracker:       opts.Tracker,
		generator:     keywords.NewGenerator(),
		rebalancer:    scheduler.NewRebalancer(opts.Catalog, logger),
		tierConfigs:   tierConfigs,
		pool:          opts.Pool,
		rates:         opts.Rates,
		notifier:      opts.Notifier,
		seen:          opts.Seen,
		stateStore:    opts.State,
		processed:     opts.Processed,
		statStore:     opts.Stats,
		stats:         opts.StatsSink,
		sleep:         BaseSleep,
		deliveryPause: deliveryPause,
		logger:        logger,
		now:           time.Now,
	}
}

// CycleResult summarizes one cycle for the caller.
type CycleResult struct {
	Cycle     int
	Skipped   bool
	Searches  int
	Found     int
	Delivered int
	SearchErr int
	Duration  time.Duration
	Sleep     time.Duration
	Errors    []string
}

// Run loops cycles until the context is cancelled. In-flight searches
// finish within their own timeouts; state is persisted before returning
// so a cycle's learned feedback is never lost to a shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		result, err := o.RunCycle(ctx)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(result.Sleep):
		}
	}
}

// RunCycle executes exactly one cycle. It only returns an error on
// context cancellation; per-search and per-store failures are counted
// and carried in the result instead.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := o.now()
	o.tracker.AdvanceCycle()
	cycle := o.tracker.Cycle()

	result := &CycleResult{Cycle: cycle}

	if o.emergency.Active() {
		o.logger.Printf("[orchestrator] cycle %d: emergency mode, skipping", cycle)
		observability.DefaultMetrics.EmergencySkips.Inc()
		o.emergency.reset()
		result.Skipped = true
		result.Sleep = o.sleep
		return result, nil
	}

	if cycle%RebalanceEvery == 0 {
		o.rebalance()
	}
	if cycle%EpochClearEvery == 0 {
		o.logger.Printf("[orchestrator] cycle %d: clearing seen epoch (%d ids)", cycle, o.seen.Len())
		o.seen.Clear()
	}

	// Scheduling: one task per (keyword, sort order) for each eligible brand.
	tasks, tierByBrand := o.buildTasks(cycle)
	result.Searches = len(tasks)
	o.logger.Printf("[orchestrator] cycle %d: dispatching %d searches", cycle, len(tasks))

	results := o.pool.Run(ctx, tasks)
	if err := ctx.Err(); err != nil {
		o.persist(result)
		return result, err
	}

	// All tracker mutations happen here, serially, after the join.
	var listings []*domain.Listing
	for _, r := range results {
		o.tracker.RecordResult(r.Task.Keyword, r.Task.BrandKey, len(r.Listings), r.Latency, avgQuality(r.Listings))
		o.emergency.Observe(r.Errors > 0 && len(r.Listings) == 0)
		result.SearchErr += r.Errors

		tier := tierByBrand[r.Task.BrandKey]
		observability.RecordSearch(tier.String(), r.Latency.Seconds(), r.Errors > 0)
		for range r.Listings {
			observability.RecordFound(r.Task.BrandKey)
		}
		listings = append(listings, r.Listings...)
	}
	result.Found = len(listings)

	// Best items first, so partial delivery failures drop the worst.
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Priority > listings[j].Priority
	})

	result.Delivered = o.deliver(ctx, listings)
	o.lowVolume.Observe(result.Delivered)

	result.Duration = o.now().Sub(start)
	o.recordStats(ctx, result)
	o.persist(result)
	result.Sleep = o.adaptSleep(result)

	o.logger.Printf("[orchestrator] cycle %d: %d searched, %d found, %d delivered, %d errors in %s (sleep %s)",
		cycle, result.Searches, result.Found, result.Delivered, result.SearchErr,
		result.Duration.Round(time.Second), result.Sleep)

	return result, nil
}

// buildTasks selects eligible brands per the tier schedule and expands
// each into (keyword, sort order) tasks.
func (o *Orchestrator) buildTasks(cycle int) ([]search.Task, map[string]domain.Tier) {
	state := o.tracker.State()
	low := o.lowVolume.IsLowVolume()

	var tasks []search.Task
	tierByBrand := make(map[string]domain.Tier)

	for _, b := range o.catalog.Brands() {
		brand := b
		tier := scheduler.TierFor(state, &brand)
		tierByBrand[brand.Key()] = tier

		cfg, ok := o.tierConfigs[tier]
		if !ok {
			continue
		}
		if !scheduler.ShouldSearch(cfg, cycle) {
			continue
		}
		cfg = scheduler.AdaptiveConfig(cfg, low)

		for _, kw := range o.keywordsFor(&brand, cfg.BaseKeywords, cycle) {
			for _, sortOrder := range cfg.SortOrders {
				tasks = append(tasks, search.Task{
					Keyword:  kw,
					BrandKey: brand.Key(),
					Sort:     sortOrder,
					MaxPages: cfg.BasePages,
					Delay:    cfg.Delay,
				})
			}
		}
	}

	return tasks, tierByBrand
}

// keywordsFor fills a brand's keyword budget: proven performers first,
// then generated breadth, skipping dead keywords unless they earned a
// revival probe.
func (o *Orchestrator) keywordsFor(b *domain.Brand, budget, cycle int) []string {
	if budget <= 0 {
		return nil
	}

	out := o.tracker.BestForBrand(b.Key(), (budget+1)/2)

	for _, kw := range o.generator.Generate(b, cycle) {
		if len(out) >= budget {
			break
		}
		if o.tracker.IsDead(kw) && !o.tracker.ShouldRevive(kw) {
			continue
		}
		out = appendUnique(out, kw)
	}

	if len(out) < budget {
		for _, kw := range o.tracker.BestForBrand(b.Key(), budget) {
			if len(out) >= budget {
				break
			}
			out = appendUnique(out, kw)
		}
	}

	return out
}

// deliver pushes listings in priority order with a politeness pause
// between items. A failed delivery is skipped, not retried; the ID stays
// out of the processed ledger so the listing can resurface.
func (o *Orchestrator) deliver(ctx context.Context, listings []*domain.Listing) int {
	delivered := 0
	for i, l := range listings {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return delivered
			case <-time.After(o.deliveryPause):
			}
		}

		ok := o.notifier.Deliver(ctx, l)
		observability.RecordDelivery(ok)
		if !ok {
			continue
		}
		delivered++

		if o.processed != nil {
			if err := o.processed.Insert(ctx, l.AuctionID); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				o.logger.Printf("[orchestrator] processed insert %s: %v", l.AuctionID, err)
			}
		}
	}
	return delivered
}

// rebalance recomputes tier assignments from brand performance and
// applies them as overrides on the tracker state.
func (o *Orchestrator) rebalance() {
	state := o.tracker.State()
	state.TierOverrides = o.rebalancer.Rebalance(state)
	observability.DefaultMetrics.Rebalances.Inc()

	counts := make(map[string]int, len(domain.Tiers))
	for _, tier := range state.TierOverrides {
		counts[tier.String()]++
	}
	observability.UpdateTierGauges(counts)
}

// recordStats persists and publishes the cycle summary, best effort.
func (o *Orchestrator) recordStats(ctx context.Context, result *CycleResult) {
	state := o.tracker.State()
	stats := domain.CycleStats{
		Cycle:        result.Cycle,
		TimestampMs:  o.now().UnixMilli(),
		Searches:     result.Searches,
		Found:        result.Found,
		Delivered:    result.Delivered,
		Errors:       result.SearchErr,
		DurationSec:  result.Duration.Seconds(),
		Efficiency:   efficiency(result.Delivered, result.Searches),
		LowVolume:    o.lowVolume.IsLowVolume(),
		SeenSetSize:  o.seen.Len(),
		ExchangeRate: o.rates.Rate(ctx),
	}

	observability.RecordCycle(stats.DurationSec, o.sleep.Seconds())
	observability.UpdateKeywordGauges(len(state.DeadKeywords), len(state.HotKeywords))
	observability.UpdateStateGauges(stats.SeenSetSize, stats.ExchangeRate, stats.LowVolume)

	if o.statStore != nil {
		if err := o.statStore.Insert(ctx, &stats); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("cycle stats insert: %v", err))
		}
	}
	if o.stats != nil {
		o.stats.DeliverStats(ctx, stats)
	}
}

// persist flushes the tracker state and the seen epoch. Failures are
// carried in the result; a cycle never aborts on persistence.
func (o *Orchestrator) persist(result *CycleResult) {
	if err := o.stateStore.Save(o.tracker.State()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("state save: %v", err))
	}
	if err := o.seen.Save(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("seen save: %v", err))
	}
}

// adaptSleep moves the baseline sleep with cycle efficiency and returns
// the effective sleep for this cycle, discounted by the time the cycle
// itself took.
func (o *Orchestrator) adaptSleep(result *CycleResult) time.Duration {
	eff := efficiency(result.Delivered, result.Searches)
	switch {
	case eff > highEfficiency:
		o.sleep -= sleepStep
	case eff < lowEfficiency:
		o.sleep += sleepStep
	}
	if o.sleep < MinSleep {
		o.sleep = MinSleep
	}
	if o.sleep > MaxSleep {
		o.sleep = MaxSleep
	}

	actual := o.sleep - result.Duration
	if actual < MinSleep {
		actual = MinSleep
	}
	return actual
}

func efficiency(delivered, searches int) float64 {
	if searches == 0 {
		return 0
	}
	return float64(delivered) / float64(searches)
}

func avgQuality(listings []*domain.Listing) float64 {
	if len(listings) == 0 {
		return 0
	}
	var sum float64
	for _, l := range listings {
		sum += l.Quality
	}
	return sum / float64(len(listings))
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
