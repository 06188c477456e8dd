package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/whaleradar/whaleradar/analytics"
	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/store"
)

// Supervisor owns the sharded trade/orderbook workers and the ticker
// poller, and starts them as a coordinated goroutine group (spec §4.2,
// §5 "Scheduling model").
type Supervisor struct {
	Pairs  []string // wire-format pair names
	Config *config.Config
	Engine *analytics.Engine
	Store  *store.Store
}

// Run launches every worker and blocks until ctx is canceled or one of
// them returns a non-context error.
func (s *Supervisor) Run(ctx context.Context) error {
	tunables := s.Config.App.Get()
	g, ctx := errgroup.WithContext(ctx)

	shards := shardPairs(s.Pairs, tunables.TradeWorkerPairsPerConn)
	stagger := time.Duration(tunables.TradeWorkerStaggerMs) * time.Millisecond
	reconnectWait := time.Duration(tunables.ReconnectDelaySec) * time.Second

	for i, shard := range shards {
		i, shard := i, shard
		delay := time.Duration(i) * stagger
		g.Go(func() error {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			w := &TradeWorker{ID: i, URL: s.Config.TradeFeedURL, Pairs: shard, Engine: s.Engine, ReconnectWait: reconnectWait}
			return w.Run(ctx)
		})
	}

	for i, shard := range shards {
		i, shard := i, shard
		delay := time.Duration(i) * stagger
		g.Go(func() error {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			w := &OrderbookWorker{ID: i, URL: s.Config.OrderbookFeedURL, Pairs: shard, Store: s.Store, ReconnectWait: reconnectWait}
			return w.Run(ctx)
		})
	}

	g.Go(func() error {
		p := &TickerPoller{
			RESTURL:    s.Config.TickerRESTURL,
			Pairs:      s.Pairs,
			Engine:     s.Engine,
			Interval:   time.Duration(tunables.TickerPollIntervalSec) * time.Second,
			ChunkSize:  tunables.TickerChunkSize,
			ChunkDelay: time.Duration(tunables.TickerChunkDelayMs) * time.Millisecond,
		}
		return p.Run(ctx)
	})

	return g.Wait()
}

// shardPairs splits pairs into groups of at most size each (spec §4.2:
// ~20 pairs per worker connection).
func shardPairs(pairs []string, size int) [][]string {
	if size <= 0 {
		size = len(pairs)
	}
	var shards [][]string
	for i := 0; i < len(pairs); i += size {
		end := i + size
		if end > len(pairs) {
			end = len(pairs)
		}
		shards = append(shards, pairs[i:end])
	}
	return shards
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
