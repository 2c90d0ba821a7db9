package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"auction-sniper/internal/config"
	"auction-sniper/internal/domain"
	"auction-sniper/internal/fx"
	"auction-sniper/internal/keywords"
	"auction-sniper/internal/notify"
	"auction-sniper/internal/observability"
	"auction-sniper/internal/orchestrator"
	"auction-sniper/internal/search"
	"auction-sniper/internal/storage"
	chstore "auction-sniper/internal/storage/clickhouse"
	filestore "auction-sniper/internal/storage/file"
	"auction-sniper/internal/storage/memory"
	"auction-sniper/internal/storage/migrations"
	pgstore "auction-sniper/internal/storage/postgres"
)

func main() {
	logger := log.New(os.Stdout, "[sniper] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of files and databases")
	listenAddr := flag.String("listen-addr", cfg.ListenAddr, "HTTP address for /health, /metrics and /status (empty to disable)")
	workers := flag.Int("workers", cfg.WorkerCount, "Concurrent search workers")
	flag.Parse()

	logger.Printf("Source: %s, webhook: %s, postgres: %s",
		cfg.SourceURL, cfg.MaskedWebhookURL(), cfg.MaskedPostgresDSN())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(60 * time.Second):
			logger.Println("Graceful shutdown timed out after 60s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	if err := run(ctx, cfg, logger, *useMemory, *listenAddr, *workers); err != nil && !errors.Is(err, context.Canceled) {
		close(done)
		logger.Fatalf("Error: %v", err)
	}

	close(done)
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, useMemory bool, listenAddr string, workers int) error {
	stores, err := createStores(ctx, cfg, logger, useMemory)
	if err != nil {
		return err
	}
	defer stores.close()

	if err := stores.seen.Load(); err != nil {
		return fmt.Errorf("load seen set: %w", err)
	}

	state, err := stores.state.Load()
	if errors.Is(err, storage.ErrNotFound) {
		logger.Println("No persisted state found, starting cold")
		state = domain.NewTrackerState()
	} else if err != nil {
		return fmt.Errorf("load tracker state: %w", err)
	} else {
		logger.Printf("Resuming from cycle %d (%d tracked keywords)", state.Cycle, len(state.Keywords))
	}

	catalog := domain.DefaultCatalog()
	tracker := keywords.NewTracker(state, catalog, logger)

	rates := fx.NewCache(fx.Options{
		Store:    stores.rate,
		Endpoint: cfg.RateEndpoint,
		TTL:      cfg.RateTTL,
		Logger:   logger,
	})

	source := search.NewHTTPSource(cfg.SourceURL,
		search.WithSourceTimeout(cfg.SourceTimeout),
		search.WithSourceRetries(cfg.SourceRetries))

	searcher := search.NewSearcher(search.SearcherOptions{
		Source:    source,
		Catalog:   catalog,
		Seen:      stores.seen,
		Processed: stores.processed,
		Rates:     rates,
		Logger:    logger,
	})

	notifier, statsSink, closeNotifier, err := createNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	orch := orchestrator.New(orchestrator.Options{
		Catalog:       catalog,
		Tracker:       tracker,
		Pool:          search.NewPool(searcher, workers),
		Rates:         rates,
		Notifier:      notifier,
		Seen:          stores.seen,
		State:         stores.state,
		Processed:     stores.processed,
		Stats:         stores.cycleStats,
		StatsSink:     statsSink,
		DeliveryPause: cfg.DeliveryPause,
		Logger:        logger,
	})

	if listenAddr != "" {
		startHTTPServer(listenAddr, logger, stores)
	}

	logger.Println("Starting scan loop")
	return orch.Run(ctx)
}

// sniperStores bundles the persistence backends behind the storage
// interfaces. processed and cycleStats may be nil.
type sniperStores struct {
	seen       storage.SeenStore
	state      storage.StateStore
	rate       storage.RateStore
	processed  storage.ProcessedStore
	cycleStats storage.CycleStatStore

	closers []func()
}

func (s *sniperStores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// createStores picks the backends: memory for throwaway runs, JSON files
// for local state, and Postgres/ClickHouse ledgers when DSNs are set.
func createStores(ctx context.Context, cfg *config.Config, logger *log.Logger, useMemory bool) (*sniperStores, error) {
	if useMemory {
		logger.Println("Using in-memory storage")
		return &sniperStores{
			seen:       memory.NewSeenStore(),
			state:      memory.NewStateStore(),
			rate:       memory.NewRateStore(),
			processed:  memory.NewProcessedStore(),
			cycleStats: memory.NewCycleStatStore(),
		}, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	stores := &sniperStores{
		seen:  filestore.NewSeenStore(filepath.Join(cfg.DataDir, "seen.json")),
		state: filestore.NewStateStore(filepath.Join(cfg.DataDir, "state.json")),
		rate:  filestore.NewRateStore(filepath.Join(cfg.DataDir, "rate.json")),
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.processed = pgstore.NewProcessedStore(pool)
		stores.closers = append(stores.closers, pool.Close)
		logger.Println("Processed ledger: postgres")
	} else {
		logger.Println("No POSTGRES_DSN, processed ledger disabled")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			stores.close()
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			stores.close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.cycleStats = chstore.NewCycleStatStore(conn)
		stores.closers = append(stores.closers, func() { conn.Close() })
		logger.Println("Cycle stats: clickhouse")
	}

	return stores, nil
}

// createNotifier prefers the WebSocket sink when configured, falling back
// to the webhook. The webhook doubles as the stats sink when present.
func createNotifier(ctx context.Context, cfg *config.Config, logger *log.Logger) (notify.Notifier, orchestrator.StatsNotifier, func(), error) {
	var webhook *notify.WebhookNotifier
	if cfg.WebhookURL != "" {
		webhook = notify.NewWebhookNotifier(cfg.WebhookURL, logger)
		if !webhook.Healthy(ctx) {
			logger.Printf("Webhook consumer at %s is not healthy, delivering anyway", cfg.MaskedWebhookURL())
		}
	}

	if cfg.WSEndpoint != "" {
		ws, err := notify.NewWSNotifier(ctx, cfg.WSEndpoint, nil, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect notifier websocket: %w", err)
		}
		var stats orchestrator.StatsNotifier
		if webhook != nil {
			stats = webhook
		}
		return ws, stats, func() { ws.Close() }, nil
	}

	return webhook, webhook, func() {}, nil
}

// startHTTPServer exposes /health, /metrics and /status.
func startHTTPServer(addr string, logger *log.Logger, stores *sniperStores) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	// The tracker itself is mutated serially by the cycle loop, so status
	// only reads mutex-guarded sources: the seen store and the stats ledger.
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{
			"seen_set_size": stores.seen.Len(),
		}
		if stores.cycleStats != nil {
			if recent, err := stores.cycleStats.GetRecent(r.Context(), 5); err == nil {
				status["recent_cycles"] = recent
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	go func() {
		logger.Printf("Starting HTTP server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()
}
