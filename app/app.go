// Package app wires together every WhaleRadar component (C1-C10) into one
// running process and owns its startup/shutdown sequence.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/whaleradar/whaleradar/analytics"
	apitransport "github.com/whaleradar/whaleradar/api"
	"github.com/whaleradar/whaleradar/cache"
	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/evaluator"
	"github.com/whaleradar/whaleradar/ingest"
	"github.com/whaleradar/whaleradar/maintenance"
	"github.com/whaleradar/whaleradar/paper"
	"github.com/whaleradar/whaleradar/readapi"
	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// starsObserveInterval is how often the bus is scanned for new WH_PRED
// signals; the tracker's own MaybeFlush throttles persistence separately
// (spec §4.8 "at most once per 60s").
const starsObserveInterval = 5 * time.Second

// App owns every long-running component and the shared state they read
// and write (spec §5 "Global mutable state ... model as explicit
// services with well-defined ownership").
type App struct {
	config *config.Config

	store *store.Store
	bus   *signalbus.Bus

	engine     *analytics.Engine
	supervisor *ingest.Supervisor
	evaluator  *evaluator.Evaluator
	sweeper    *maintenance.Sweeper
	ledger     *paper.Ledger
	stars      *readapi.StarsTracker
	redis      *cache.RedisClient
	server     *apitransport.Server
}

// New wires the application graph from cfg without starting anything.
func New(cfg *config.Config) *App {
	s := store.New()
	bus := signalbus.New()
	engine := analytics.New(s, bus, cfg.App)
	ledger := paper.Load(s, cfg.ManualTradesFile, cfg.ManualTradesEquityFile)
	stars := readapi.LoadStarsTracker(cfg.StarsHistoryFile)
	redisClient := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)

	return &App{
		config:    cfg,
		store:     s,
		bus:       bus,
		engine:    engine,
		evaluator: evaluator.New(bus, s, cfg.App),
		sweeper:   maintenance.New(s, cfg.App),
		ledger:    ledger,
		stars:     stars,
		redis:     redisClient,
		server:    apitransport.New(s, bus, cfg, ledger, stars, redisClient),
	}
}

// Start fetches the tradable pair list, launches every long-running
// component, and blocks until a shutdown signal arrives or a component
// fails fatally (spec §7 "fatal startup").
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer a.redis.Close()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	pairs, err := ingest.FetchPairs(ctx, a.config.TickerRESTURL, httpClient)
	if err != nil {
		return fmt.Errorf("fetch tradable pairs: %w", err)
	}
	log.Info().Int("pairs", len(pairs)).Msg("fetched tradable pair list")

	a.supervisor = &ingest.Supervisor{Pairs: pairs, Config: a.config, Engine: a.engine, Store: a.store}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.supervisor.Run(gctx) })
	g.Go(func() error { return a.evaluator.Run(gctx) })
	g.Go(func() error { return a.sweeper.Run(gctx) })
	g.Go(func() error { return a.runStarsFlusher(gctx) })
	g.Go(func() error {
		return a.server.Start(gctx, a.config.HTTPPortRangeLow, a.config.HTTPPortRangeHigh)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runStarsFlusher periodically observes the signal bus for new stars and
// flushes the tracker's dirty state to disk (spec §4.8, §6 "flushed every
// 60s when dirty").
func (a *App) runStarsFlusher(ctx context.Context) error {
	ticker := time.NewTicker(starsObserveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.stars.Observe(a.bus, a.store)
			a.stars.MaybeFlush()
		}
	}
}
