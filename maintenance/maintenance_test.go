package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/store"
)

func TestSweep_ResetsStaleTradeStateButKeepsPair(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("BTC/USD")
	entry.With(func(e *store.Entry) {
		e.Trade.LastUpdateTS = 1000
		e.Trade.TradeCount = 42
		e.Trade.RecentAnom = true
	})

	m := New(s, config.DefaultAppConfig())
	m.sweep(1000 + 13*3600) // past the 12h eviction window

	entry, ok := s.Get("BTC/USD")
	require.True(t, ok)
	trade := entry.Snapshot().Trade
	assert.Equal(t, int64(0), trade.TradeCount)
	assert.False(t, trade.RecentAnom)
	assert.Equal(t, 0.0, trade.LastUpdateTS)
}

func TestSweep_NeverTradedPairSurvivesFirstSweep(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("NEW/USD")
	entry.With(func(e *store.Entry) {
		e.Ticker.LastUpdateTS = 1000 // ticker-only pair, no trade yet
	})

	m := New(s, config.DefaultAppConfig())
	m.sweep(1000 + 13*3600) // well past the 12h trade-eviction window

	_, ok := s.Get("NEW/USD")
	assert.True(t, ok, "a pair with no trade yet must not be evicted on LastUpdateTS's zero value")
}

func TestSweep_KeepsRecentTradeState(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("ETH/USD")
	entry.With(func(e *store.Entry) {
		e.Trade.LastUpdateTS = 1000
	})

	m := New(s, config.DefaultAppConfig())
	m.sweep(1000 + 3600)

	_, ok := s.Get("ETH/USD")
	assert.True(t, ok)
}

func TestSweep_ResetsStaleCandle(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("SOL/USD")
	now := 1000.0 + 25*3600

	entry.With(func(e *store.Entry) {
		e.Candle.Update(100, 1000) // candle goes stale: opened 25h before the sweep
		e.Trade.LastUpdateTS = now - 100 // trade activity stays recent, independent of the candle
	})

	m := New(s, config.DefaultAppConfig())
	m.sweep(now)

	entry, ok := s.Get("SOL/USD")
	require.True(t, ok)
	assert.False(t, entry.Snapshot().Candle.Opened())
}

func TestSweep_EvictsStaleOrderbook(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("XRP/USD")
	entry.With(func(e *store.Entry) {
		e.Trade.LastUpdateTS = 1000
		e.Orderbook.Timestamp = 1000
		e.Orderbook.Bids = []store.BookLevel{{Price: 1, Volume: 1}}
	})

	m := New(s, config.DefaultAppConfig())
	m.sweep(1000 + 61)

	entry, _ = s.Get("XRP/USD")
	assert.Equal(t, 0.0, entry.Snapshot().Orderbook.Timestamp)
}

func TestSweep_ClearsRecentAnomAfterIdle(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("DOGE/USD")
	entry.With(func(e *store.Entry) {
		e.Trade.LastUpdateTS = 1000
		e.Trade.RecentAnom = true
	})

	m := New(s, config.DefaultAppConfig())
	m.sweep(1000 + 6*3600)

	entry, ok := s.Get("DOGE/USD")
	require.True(t, ok)
	assert.False(t, entry.Snapshot().Trade.RecentAnom)
}
