package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

func newTestEngine() *Engine {
	return New(store.New(), signalbus.New(), config.DefaultAppConfig())
}

func TestOnTrade_SeedsStateWithoutSignalling(t *testing.T) {
	e := newTestEngine()
	e.OnTrade(TradeInput{Pair: "BTC/USD", Price: 50000, Volume: 0.01, Side: store.DirBuy, TS: 1000})

	entry, ok := e.Store.Get("BTC/USD")
	require.True(t, ok)

	snap := entry.Snapshot()
	assert.Equal(t, 1, int(snap.Trade.TradeCount))
	assert.Equal(t, 0.01, snap.Trade.BuyVolume)
	assert.True(t, snap.Candle.Opened())
	assert.Equal(t, 0.0, snap.Candle.PctChange)
	assert.Empty(t, e.Bus.Snapshot())
}

func TestOnTrade_WhalePrintEmitsWhaleSignal(t *testing.T) {
	e := newTestEngine()
	pair := "ETH/USD"

	// Warm up the notional EWMA with small, unremarkable trades.
	for i := 0; i < 5; i++ {
		e.OnTrade(TradeInput{Pair: pair, Price: 3000, Volume: 0.1, Side: store.DirBuy, TS: float64(1000 + i)})
	}
	require.Empty(t, e.Bus.Snapshot())

	// A print far above the notional floor and the EWMA multiplier trips
	// the whale detector and must emit exactly once, on the rising edge.
	e.OnTrade(TradeInput{Pair: pair, Price: 3000, Volume: 5, Side: store.DirBuy, TS: 1010})

	events := e.Bus.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, signalbus.TypeWhale, events[0].SignalType)
	assert.Equal(t, store.DirBuy, events[0].Direction)
	assert.True(t, events[0].Whale)

	entry, _ := e.Store.Get(pair)
	assert.True(t, entry.Snapshot().Trade.LastWhale)

	// Repeating an equally large whale print holds the level and must not
	// re-emit (edge-triggered, not level-triggered).
	e.OnTrade(TradeInput{Pair: pair, Price: 3000, Volume: 5, Side: store.DirBuy, TS: 1011})
	assert.Len(t, e.Bus.Snapshot(), 1)
}

func TestOnTrade_WhaleFallingEdgeRearms(t *testing.T) {
	e := newTestEngine()
	pair := "SOL/USD"

	for i := 0; i < 5; i++ {
		e.OnTrade(TradeInput{Pair: pair, Price: 100, Volume: 1, Side: store.DirBuy, TS: float64(2000 + i)})
	}
	e.OnTrade(TradeInput{Pair: pair, Price: 100, Volume: 80, Side: store.DirBuy, TS: 2010})
	require.Len(t, e.Bus.Snapshot(), 1)

	// A small trade drops LastWhale back to false...
	e.OnTrade(TradeInput{Pair: pair, Price: 100, Volume: 1, Side: store.DirBuy, TS: 2011})
	entry, _ := e.Store.Get(pair)
	assert.False(t, entry.Snapshot().Trade.LastWhale)

	// ...so a second large print re-arms the edge and emits again.
	e.OnTrade(TradeInput{Pair: pair, Price: 100, Volume: 80, Side: store.DirBuy, TS: 2012})
	events := e.Bus.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, signalbus.TypeWhale, events[1].SignalType)
}

func TestOnTrade_SustainedBuyPressureDrivesPumpSignal(t *testing.T) {
	e := newTestEngine()
	pair := "DOGE/USD"

	price := 0.10
	ts := 3000.0
	for i := 0; i < 40; i++ {
		price *= 1.002 // steady grind up
		ts += 1
		e.OnTrade(TradeInput{Pair: pair, Price: price, Volume: 50, Side: store.DirBuy, TS: ts})
	}

	entry, ok := e.Store.Get(pair)
	require.True(t, ok)
	snap := entry.Snapshot()

	assert.Greater(t, snap.Trade.LastFlowPct, 50.0)
	assert.Equal(t, store.DirBuy, snap.Trade.LastDir)
	assert.Greater(t, snap.Trade.LastPumpScore, 0.0)
}

func TestOnTicker_InitializesCandleForUntradedPair(t *testing.T) {
	e := newTestEngine()
	pair := "XRP/USD"

	e.OnTicker(TickerInput{Pair: pair, Last: 0.5, Vol24h: 1_000_000, Open24h: 0.48, TS: 5000})

	entry, ok := e.Store.Get(pair)
	require.True(t, ok)
	snap := entry.Snapshot()
	assert.True(t, snap.Candle.Opened())
	assert.Equal(t, 0.5, snap.Candle.Close)
}

func TestOnTicker_LargeJumpEmitsAnomaly(t *testing.T) {
	e := newTestEngine()
	pair := "ADA/USD"

	e.OnTicker(TickerInput{Pair: pair, Last: 1.0, Vol24h: 1_000_000, Open24h: 1.0, TS: 6000})
	require.Empty(t, e.Bus.Snapshot())

	// A sharp move plus a volume surge should trip score>40 with jump>0.3.
	e.OnTicker(TickerInput{Pair: pair, Last: 1.5, Vol24h: 5_000_000, Open24h: 1.0, TS: 6020})

	events := e.Bus.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, signalbus.TypeAnomaly, events[0].SignalType)
	assert.True(t, events[0].Evaluated)
	assert.Equal(t, store.DirBuy, events[0].Direction)

	entry, _ := e.Store.Get(pair)
	assert.True(t, entry.Snapshot().Trade.RecentAnom)
}

func TestOnTicker_QuietMarketStaysSilent(t *testing.T) {
	e := newTestEngine()
	pair := "LTC/USD"

	e.OnTicker(TickerInput{Pair: pair, Last: 80, Vol24h: 2_000_000, Open24h: 80, TS: 7000})
	e.OnTicker(TickerInput{Pair: pair, Last: 80.1, Vol24h: 2_010_000, Open24h: 80, TS: 7020})

	assert.Empty(t, e.Bus.Snapshot())
}

func TestOnTrade_AnomalyContextFeedsWhaleAnomalyScore(t *testing.T) {
	e := newTestEngine()
	pair := "MATIC/USD"

	e.OnTicker(TickerInput{Pair: pair, Last: 1.0, Vol24h: 1_000_000, Open24h: 1.0, TS: 8000})
	e.OnTicker(TickerInput{Pair: pair, Last: 1.6, Vol24h: 6_000_000, Open24h: 1.0, TS: 8010})
	require.Len(t, e.Bus.Snapshot(), 1)

	// A trade shortly after the anomaly should see non-zero anomaly context.
	e.OnTrade(TradeInput{Pair: pair, Price: 1.6, Volume: 10, Side: store.DirBuy, TS: 8015})

	entry, _ := e.Store.Get(pair)
	assert.Greater(t, entry.Snapshot().Trade.LastScore, 0.0)
}

func TestFlowPercent(t *testing.T) {
	pct, dir := flowPercent(80, 20, 0.75, 0.25)
	assert.Equal(t, 80.0, pct)
	assert.Equal(t, store.DirBuy, dir)

	pct, dir = flowPercent(20, 80, 0.75, 0.25)
	assert.Equal(t, 80.0, pct)
	assert.Equal(t, store.DirSell, dir)

	pct, dir = flowPercent(50, 50, 0.75, 0.25)
	assert.Equal(t, 50.0, pct)
	assert.Equal(t, store.DirNeutr, dir)

	pct, dir = flowPercent(0, 0, 0.75, 0.25)
	assert.Equal(t, 50.0, pct)
	assert.Equal(t, store.DirNeutr, dir)
}

func TestRatingFor(t *testing.T) {
	assert.Equal(t, store.RatingAlphaBuy, ratingFor(7.5))
	assert.Equal(t, store.RatingStrongBuy, ratingFor(5.0))
	assert.Equal(t, store.RatingBuy, ratingFor(3.5))
	assert.Equal(t, store.RatingEarlyBuy, ratingFor(2.2))
	assert.Equal(t, store.RatingNone, ratingFor(2.1))
}

func TestEarlyAlphaFor(t *testing.T) {
	early, alpha := earlyAlphaFor(store.RatingEarlyBuy)
	assert.Equal(t, store.DirBuy, early)
	assert.Equal(t, store.Direction(""), alpha)

	early, alpha = earlyAlphaFor(store.RatingAlphaBuy)
	assert.Equal(t, store.DirBuy, early)
	assert.Equal(t, store.DirBuy, alpha)

	early, alpha = earlyAlphaFor(store.RatingNone)
	assert.Equal(t, store.Direction(""), early)
	assert.Equal(t, store.Direction(""), alpha)
}
