package search

import (
	"context"
	"sync"
	"time"

	"auction-sniper/internal/domain"
)

// DefaultWorkers is the fixed fan-out width. Concurrency here only
// shrinks wall-clock cycle time; correctness never depends on it.
const DefaultWorkers = 4

// Task is one (keyword, sort order) search unit dispatched to a worker.
type Task struct {
	Keyword  string
	BrandKey string
	Sort     domain.SortOrder
	MaxPages int
	Delay    time.Duration
}

// Result carries a task's joined outcome back to the orchestrator, which
// applies all tracker updates serially.
type Result struct {
	Task     Task
	Listings []*domain.Listing
	Errors   int
	Latency  time.Duration
}

// Pool fans search tasks over a fixed number of workers and joins the
// results. Workers share nothing mutable: each result is a value.
type Pool struct {
	searcher *Searcher
	workers  int
}

// NewPool creates a pool around a searcher.
func NewPool(searcher *Searcher, workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{searcher: searcher, workers: workers}
}

// Run dispatches every task and blocks until all complete. Result order
// is nondeterministic; callers re-sort globally after the join.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				start := time.Now()
				listings, errs := p.searcher.SearchKeyword(ctx, task.Keyword, task.MaxPages, task.Sort, task.Delay)
				resultCh <- Result{
					Task:     task,
					Listings: listings,
					Errors:   errs,
					Latency:  time.Since(start),
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case taskCh <- task:
			}
		}
	}()

	wg.Wait()
	close(resultCh)

	results := make([]Result, 0, len(tasks))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}
