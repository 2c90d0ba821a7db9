package orchestrator

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/keywords"
	"auction-sniper/internal/search"
	"auction-sniper/internal/storage/memory"
)

// stubSource returns the same canned rows for every page-1 query.
type stubSource struct {
	mu      sync.Mutex
	rows    []search.Row
	queries int
}

func (s *stubSource) Search(ctx context.Context, q search.Query) ([]search.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if q.Page > 1 {
		return nil, nil
	}
	return s.rows, nil
}

// flatRate pins the exchange rate for deterministic USD conversion.
type flatRate struct{ rate float64 }

func (f flatRate) Rate(ctx context.Context) float64 { return f.rate }
func (f flatRate) YenToUSD(ctx context.Context, yen int64) float64 {
	return float64(yen) / f.rate
}

// recordingNotifier collects delivered listings in order.
type recordingNotifier struct {
	mu        sync.Mutex
	delivered []*domain.Listing
	accept    bool
}

func (n *recordingNotifier) Deliver(ctx context.Context, l *domain.Listing) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, l)
	return n.accept
}

type testEnv struct {
	orch      *Orchestrator
	source    *stubSource
	notifier  *recordingNotifier
	seen      *memory.SeenStore
	state     *memory.StateStore
	processed *memory.ProcessedStore
	stats     *memory.CycleStatStore
}

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	catalog, err := domain.NewCatalog([]domain.Brand{
		{Name: "Raf Simons", Aliases: []string{"raf simons", "ラフシモンズ"}, Tier: domain.TierPremium},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return catalog
}

func newTestEnv(t *testing.T, state *domain.TrackerState, rows []search.Row) *testEnv {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	catalog := testCatalog(t)
	if state == nil {
		state = domain.NewTrackerState()
	}

	source := &stubSource{rows: rows}
	seen := memory.NewSeenStore()
	processed := memory.NewProcessedStore()
	stateStore := memory.NewStateStore()
	statStore := memory.NewCycleStatStore()
	notifier := &recordingNotifier{accept: true}
	rates := flatRate{rate: 150}

	searcher := search.NewSearcher(search.SearcherOptions{
		Source:    source,
		Catalog:   catalog,
		Seen:      seen,
		Processed: processed,
		Rates:     rates,
		Logger:    logger,
	})

	orch := New(Options{
		Catalog:   catalog,
		Tracker:   keywords.NewTracker(state, catalog, logger),
		Pool:      search.NewPool(searcher, 2),
		Rates:     rates,
		Notifier:  notifier,
		Seen:      seen,
		State:     stateStore,
		Processed: processed,
		Stats:     statStore,
		TierConfigs: map[domain.Tier]domain.TierConfig{
			domain.TierPremium: {
				BaseKeywords: 2,
				BasePages:    1,
				Frequency:    1,
				Delay:        0,
				SortOrders:   []domain.SortOrder{domain.SortNewest},
			},
		},
		DeliveryPause: time.Millisecond,
		Logger:        logger,
	})

	return &testEnv{
		orch:      orch,
		source:    source,
		notifier:  notifier,
		seen:      seen,
		state:     stateStore,
		processed: processed,
		stats:     statStore,
	}
}

func TestRunCycle_DeliversByPriorityAndMarksProcessed(t *testing.T) {
	ctx := context.Background()

	// a1 carries an archive marker so it must outrank a2.
	rows := []search.Row{
		{ID: "a2", Title: "raf simons jacket", PriceText: "20,000円"},
		{ID: "a1", Title: "raf simons archive jacket fw03", PriceText: "9,000円"},
	}
	env := newTestEnv(t, nil, rows)

	result, err := env.orch.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}

	if result.Cycle != 1 {
		t.Errorf("cycle = %d, want 1", result.Cycle)
	}
	if result.Skipped {
		t.Error("cycle skipped unexpectedly")
	}
	if result.Searches == 0 {
		t.Fatal("no searches dispatched")
	}
	if result.Found != 2 {
		t.Fatalf("found = %d, want 2 (dedup across keywords)", result.Found)
	}
	if result.Delivered != 2 {
		t.Fatalf("delivered = %d, want 2", result.Delivered)
	}

	got := env.notifier.delivered
	if len(got) != 2 {
		t.Fatalf("notifier received %d listings", len(got))
	}
	if got[0].AuctionID != "a1" {
		t.Errorf("first delivery = %s, want a1 (higher priority)", got[0].AuctionID)
	}
	if got[0].Priority <= got[1].Priority {
		t.Errorf("delivery order not descending: %v then %v", got[0].Priority, got[1].Priority)
	}

	for _, id := range []string{"a1", "a2"} {
		ok, err := env.processed.Exists(ctx, id)
		if err != nil {
			t.Fatalf("processed exists: %v", err)
		}
		if !ok {
			t.Errorf("%s missing from processed ledger", id)
		}
	}

	// State was persisted with the advanced cycle counter.
	saved, err := env.state.Load()
	if err != nil {
		t.Fatalf("load saved state: %v", err)
	}
	if saved.Cycle != 1 {
		t.Errorf("persisted cycle = %d, want 1", saved.Cycle)
	}

	recent, err := env.stats.GetRecent(ctx, 1)
	if err != nil {
		t.Fatalf("get recent stats: %v", err)
	}
	if len(recent) != 1 || recent[0].Delivered != 2 {
		t.Errorf("cycle stats row = %+v", recent)
	}
}

func TestRunCycle_FailedDeliveryStaysUnprocessed(t *testing.T) {
	ctx := context.Background()
	rows := []search.Row{
		{ID: "b1", Title: "raf simons archive jacket", PriceText: "9,000円"},
	}
	env := newTestEnv(t, nil, rows)
	env.notifier.accept = false

	result, err := env.orch.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}

	if result.Delivered != 0 {
		t.Errorf("delivered = %d, want 0", result.Delivered)
	}
	ok, err := env.processed.Exists(ctx, "b1")
	if err != nil {
		t.Fatalf("processed exists: %v", err)
	}
	if ok {
		t.Error("failed delivery must not enter the processed ledger")
	}
}

func TestRunCycle_SecondCycleRedeliversNothing(t *testing.T) {
	ctx := context.Background()
	rows := []search.Row{
		{ID: "c1", Title: "raf simons archive jacket", PriceText: "9,000円"},
	}
	env := newTestEnv(t, nil, rows)

	first, err := env.orch.RunCycle(ctx)
	if err != nil {
		t.Fatalf("first RunCycle() error: %v", err)
	}
	if first.Delivered != 1 {
		t.Fatalf("first delivered = %d, want 1", first.Delivered)
	}

	second, err := env.orch.RunCycle(ctx)
	if err != nil {
		t.Fatalf("second RunCycle() error: %v", err)
	}
	if second.Delivered != 0 {
		t.Errorf("second delivered = %d, want 0 (seen within epoch)", second.Delivered)
	}
}

func TestRunCycle_EmergencySkip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, nil)

	for i := 0; i < emergencyMaxFailures; i++ {
		env.orch.emergency.Observe(true)
	}
	if !env.orch.emergency.Active() {
		t.Fatal("gate not active after max failures")
	}

	result, err := env.orch.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}
	if !result.Skipped {
		t.Fatal("cycle not skipped in emergency mode")
	}
	if result.Searches != 0 {
		t.Errorf("searches = %d during skip, want 0", result.Searches)
	}

	// The skip resets the gate so the next cycle probes again.
	next, err := env.orch.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}
	if next.Skipped {
		t.Error("cycle after emergency skip was skipped too")
	}
}

func TestEmergencyGate(t *testing.T) {
	var g emergencyGate

	for i := 0; i < emergencyMaxFailures-1; i++ {
		g.Observe(true)
	}
	if g.Active() {
		t.Fatal("gate active before threshold")
	}

	g.Observe(true)
	if !g.Active() {
		t.Fatal("gate inactive at threshold")
	}

	g.Observe(false)
	if g.Active() {
		t.Error("gate still active after a success")
	}
}

func TestRunCycle_EpochClear(t *testing.T) {
	ctx := context.Background()

	state := domain.NewTrackerState()
	state.Cycle = EpochClearEvery - 1 // this run advances to the clear boundary
	env := newTestEnv(t, state, nil)
	env.seen.Add("stale-id")

	if _, err := env.orch.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}

	if env.seen.Contains("stale-id") {
		t.Error("seen epoch not cleared on the boundary cycle")
	}
}

func TestRunCycle_RebalancePopulatesOverrides(t *testing.T) {
	ctx := context.Background()

	state := domain.NewTrackerState()
	state.Cycle = RebalanceEvery - 1
	env := newTestEnv(t, state, nil)

	if _, err := env.orch.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}

	overrides := env.orch.tracker.State().TierOverrides
	if len(overrides) != 1 {
		t.Fatalf("overrides cover %d brands, want 1", len(overrides))
	}
	if _, ok := overrides["raf_simons"]; !ok {
		t.Error("raf_simons missing from tier overrides")
	}
}

func TestAdaptSleep(t *testing.T) {
	tests := []struct {
		name      string
		delivered int
		searches  int
		sleep     time.Duration
		wantSleep time.Duration
	}{
		{"high efficiency shortens", 5, 10, BaseSleep, BaseSleep - 60*time.Second},
		{"low efficiency lengthens", 0, 10, BaseSleep, BaseSleep + 60*time.Second},
		{"mid efficiency holds", 1, 10, BaseSleep, BaseSleep},
		{"floor clamp", 5, 10, MinSleep, MinSleep},
		{"ceiling clamp", 0, 10, MaxSleep, MaxSleep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Orchestrator{sleep: tt.sleep}
			result := &CycleResult{Delivered: tt.delivered, Searches: tt.searches}

			o.adaptSleep(result)
			if o.sleep != tt.wantSleep {
				t.Errorf("sleep = %s, want %s", o.sleep, tt.wantSleep)
			}
		})
	}
}

func TestAdaptSleep_DiscountsCycleDuration(t *testing.T) {
	o := &Orchestrator{sleep: BaseSleep}

	got := o.adaptSleep(&CycleResult{Delivered: 1, Searches: 10, Duration: 100 * time.Second})
	if got != BaseSleep-100*time.Second {
		t.Errorf("effective sleep = %s, want %s", got, BaseSleep-100*time.Second)
	}

	// A cycle longer than the sleep still leaves the floor.
	o = &Orchestrator{sleep: BaseSleep}
	got = o.adaptSleep(&CycleResult{Delivered: 1, Searches: 10, Duration: BaseSleep})
	if got != MinSleep {
		t.Errorf("effective sleep = %s, want floor %s", got, MinSleep)
	}
}

func TestKeywordsFor_FillsBudgetWithoutDuplicates(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	catalog := testCatalog(t)
	brand, _ := catalog.Get("raf simons")

	got := env.orch.keywordsFor(brand, 8, 3)
	if len(got) != 8 {
		t.Fatalf("keywords = %d, want 8", len(got))
	}

	unique := make(map[string]struct{}, len(got))
	for _, kw := range got {
		if _, dup := unique[kw]; dup {
			t.Errorf("duplicate keyword %q", kw)
		}
		unique[kw] = struct{}{}
	}
}

func TestEfficiency(t *testing.T) {
	if got := efficiency(0, 0); got != 0 {
		t.Errorf("efficiency(0,0) = %v, want 0", got)
	}
	if got := efficiency(3, 10); got != 0.3 {
		t.Errorf("efficiency(3,10) = %v, want 0.3", got)
	}
}
