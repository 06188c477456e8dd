// Package maintenance implements C7: the periodic sweeper that evicts or
// resets stale per-pair state so the store does not grow without bound.
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/store"
)

// Sweeper runs the C7 maintenance pass on a fixed interval (spec §4.7).
type Sweeper struct {
	Store  *store.Store
	Config *config.AppConfig
}

func New(s *store.Store, cfg *config.AppConfig) *Sweeper {
	return &Sweeper{Store: s, Config: cfg}
}

func (m *Sweeper) Run(ctx context.Context) error {
	tunables := m.Config.Get()
	ticker := time.NewTicker(time.Duration(tunables.MaintenanceIntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.sweep(float64(time.Now().Unix()))
		}
	}
}

// sweep applies the four eviction/reset rules in spec §4.7. Each rule acts
// on its own field independently; a pair is never dropped from the store
// wholesale by this pass (it stays tracked as long as it is tradable), so a
// pair that has only ever received ticker updates (LastUpdateTS still at
// its zero value, since no trade has seeded it) is left alone rather than
// evicted on its very first sweep.
func (m *Sweeper) sweep(now float64) {
	tunables := m.Config.Get()
	tradeEvictAge := tunables.TradeStateEvictHours * 3600
	candleResetAge := tunables.CandleResetHours * 3600
	recentAnomClearAge := tunables.RecentAnomClearHours * 3600
	orderbookEvictAge := tunables.OrderbookEvictSec

	reset := 0
	m.Store.Iter(func(pair string, e *store.Entry) {
		e.With(func(e *store.Entry) {
			traded := e.Trade.LastUpdateTS > 0
			if traded && now-e.Trade.LastUpdateTS > tradeEvictAge {
				e.Trade.Reset()
				reset++
				return
			}
			if e.Candle.LastTS > 0 && now-e.Candle.LastTS > candleResetAge {
				e.Candle.Reset()
			}
			if e.Orderbook.Timestamp > 0 && now-e.Orderbook.Timestamp > orderbookEvictAge {
				e.Orderbook = store.OrderbookState{}
			}
			if traded && e.Trade.RecentAnom && now-e.Trade.LastUpdateTS > recentAnomClearAge {
				e.Trade.RecentAnom = false
			}
		})
	})

	if reset > 0 {
		log.Info().Int("reset", reset).Msg("maintenance sweep reset stale trade state")
	}
}
