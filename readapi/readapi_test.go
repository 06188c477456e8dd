package readapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

func seedEntry(s *store.Store, pair string, mutate func(e *store.Entry)) {
	entry := s.GetOrInsertDefault(pair)
	entry.With(mutate)
}

func TestBuildSnapshot_SkipsUnsignalledPairs(t *testing.T) {
	s := store.New()
	seedEntry(s, "BTC/USD", func(e *store.Entry) {
		e.Candle.Update(100, 1000)
	})
	bus := signalbus.New()

	rows := BuildSnapshot(s, bus, 1000)
	assert.Empty(t, rows)
}

func TestBuildSnapshot_IncludesWhaleAndSignalledPairs(t *testing.T) {
	s := store.New()
	seedEntry(s, "BTC/USD", func(e *store.Entry) {
		e.Candle.Update(100, 1000)
		e.Trade.LastWhale = true
		e.Trade.LastScore = 5
	})
	seedEntry(s, "ETH/USD", func(e *store.Entry) {
		e.Candle.Update(50, 1000)
		e.Trade.HasSignalled = true
		e.Trade.LastScore = 8
	})
	bus := signalbus.New()

	rows := BuildSnapshot(s, bus, 1000)
	require.Len(t, rows, 2)
	assert.Equal(t, "ETH/USD", rows[0].Pair) // higher total_score sorts first
	assert.Equal(t, "BTC/USD", rows[1].Pair)
}

func TestReliability_LabelsAtThresholds(t *testing.T) {
	_, label := Reliability(store.TradeState{TradeCount: 1000, LastUpdateTS: 1000, LastDir: store.DirBuy, LastDir5m: store.DirBuy}, 1000)
	assert.Equal(t, "HIGH", label)

	_, label = Reliability(store.TradeState{}, 10000)
	assert.Equal(t, "UNRELIABLE", label)
}

func TestBuildTopLists_SeparatesRisersAndFallers(t *testing.T) {
	rows := []Row{
		{Pair: "A", Dir: store.DirBuy, PctChange: 2, TotalScore: 5},
		{Pair: "B", Dir: store.DirSell, PctChange: -3, FlowPct: 20, TotalScore: 1},
		{Pair: "C", Dir: store.DirNeutr, PctChange: 0, TotalScore: 9},
	}
	lists := BuildTopLists(rows)
	require.Len(t, lists.Risers, 1)
	assert.Equal(t, "A", lists.Risers[0].Pair)
	require.Len(t, lists.Fallers, 1)
	assert.Equal(t, "B", lists.Fallers[0].Pair)
	assert.Equal(t, "C", lists.Best3[0].Pair) // highest total_score ranks first
}

func TestBuildHeatmap_MapsFields(t *testing.T) {
	rows := []Row{{Pair: "BTC/USD", FlowPct: 70, PumpScore: 4, LastUpdateTS: 123, Reliability: 80}}
	points := BuildHeatmap(rows)
	require.Len(t, points, 1)
	assert.Equal(t, "BTC/USD", points[0].Pair)
	assert.Equal(t, 123.0, points[0].TS)
}

func retPtr(v float64) *float64 { return &v }

func TestBuildBacktest_GroupsAndComputesStats(t *testing.T) {
	events := []signalbus.Event{
		{SignalType: signalbus.TypeWhale, Direction: store.DirBuy, TS: 1, Evaluated: true, Ret5m: retPtr(2)},
		{SignalType: signalbus.TypeWhale, Direction: store.DirBuy, TS: 2, Evaluated: true, Ret5m: retPtr(-1)},
		{SignalType: signalbus.TypeWhale, Direction: store.DirBuy, TS: 3, Evaluated: true, Ret5m: retPtr(-1)},
		{SignalType: signalbus.TypeAnomaly, Direction: store.DirSell, TS: 1, Evaluated: false},
	}

	groups := BuildBacktest(events)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, 3, g.N)
	assert.InDelta(t, 100.0/3, g.WinRate, 0.01)
	assert.InDelta(t, 2, g.AvgWin, 0.0001)
	assert.InDelta(t, -1, g.AvgLoss, 0.0001)
	assert.InDelta(t, 0, g.Expectancy, 0.0001)
	assert.Equal(t, 2, g.MaxLosingStreak)
	assert.InDelta(t, 2, g.BestTrade, 0.0001)
	assert.InDelta(t, -1, g.WorstTrade, 0.0001)
}

func TestStarsTracker_RecordsOnlyWhalePredWithRecentAnomaly(t *testing.T) {
	s := store.New()
	seedEntry(s, "BTC/USD", func(e *store.Entry) {
		e.Trade.RecentAnom = true
		e.Trade.WhalePredScore = 9
		e.Trade.WhalePredLabel = store.WhalePredHigh
	})
	seedEntry(s, "ETH/USD", func(e *store.Entry) {
		e.Trade.RecentAnom = false
	})
	bus := signalbus.New()
	bus.Push(signalbus.Event{Pair: "BTC/USD", SignalType: signalbus.TypeWhalePred, TS: 1})
	bus.Push(signalbus.Event{Pair: "ETH/USD", SignalType: signalbus.TypeWhalePred, TS: 2})
	bus.Push(signalbus.Event{Pair: "BTC/USD", SignalType: signalbus.TypeWhale, TS: 3})

	tracker := NewStarsTracker(t.TempDir() + "/stars.json")
	tracker.Observe(bus, s)

	entries := tracker.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "BTC/USD", entries[0].Pair)
}

func TestStarsTracker_KeepsRecordingPastRingCapacity(t *testing.T) {
	s := store.New()
	seedEntry(s, "BTC/USD", func(e *store.Entry) {
		e.Trade.RecentAnom = true
		e.Trade.WhalePredScore = 9
		e.Trade.WhalePredLabel = store.WhalePredHigh
	})
	bus := signalbus.New()
	tracker := NewStarsTracker(t.TempDir() + "/stars.json")

	// Fill the bus ring completely so its length pins at signalbus.MaxEvents;
	// a length-based cursor would see len(events) stay constant from here on
	// and stop noticing new events entirely.
	for i := 0; i < signalbus.MaxEvents; i++ {
		bus.Push(signalbus.Event{Pair: "BTC/USD", SignalType: signalbus.TypeAnomaly, TS: float64(i)})
	}
	tracker.Observe(bus, s)
	require.Len(t, tracker.Snapshot(), 0)

	// Push more events past the ring's capacity (drop-oldest keeps len pinned
	// at MaxEvents) and confirm a WH_PRED signal after the wraparound is
	// still recorded.
	for i := 0; i < 10; i++ {
		bus.Push(signalbus.Event{Pair: "BTC/USD", SignalType: signalbus.TypeAnomaly, TS: float64(1000 + i)})
	}
	bus.Push(signalbus.Event{Pair: "BTC/USD", SignalType: signalbus.TypeWhalePred, TS: 2000})
	tracker.Observe(bus, s)

	entries := tracker.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, 2000.0, entries[0].TS)
}

func TestStarsTracker_CapsAtMaxHistory(t *testing.T) {
	tracker := NewStarsTracker(t.TempDir() + "/stars.json")
	for i := 0; i < MaxStarsHistory+50; i++ {
		tracker.append(StarEntry{Pair: "BTC/USD", TS: float64(i)})
	}
	assert.Len(t, tracker.Snapshot(), MaxStarsHistory)
}
