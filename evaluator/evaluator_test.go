package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

func TestOutcomeFactor(t *testing.T) {
	assert.Equal(t, 1.02, outcomeFactor(2.5))
	assert.Equal(t, 1.01, outcomeFactor(0.5))
	assert.Equal(t, 0.98, outcomeFactor(-0.5))
	assert.Equal(t, 1.0, outcomeFactor(0.1))
}

func TestEvaluate_NoneRatingMarksEvaluatedWithoutMovingWeights(t *testing.T) {
	s := store.New()
	cfg := config.DefaultAppConfig()
	ev := New(signalbus.New(), s, cfg)

	before := cfg.Weights.Snapshot()
	e := signalbus.Event{Pair: "BTC/USD", Rating: store.RatingNone, FlowScore: 3}
	out, done := ev.evaluate(e, 1000)

	assert.True(t, done)
	assert.Nil(t, out.Ret5m)
	assert.Equal(t, before, cfg.Weights.Snapshot())
}

func TestEvaluate_StrongOutcomeRaisesPositiveScoreWeights(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("BTC/USD")
	entry.With(func(entry *store.Entry) {
		entry.Candle.Update(102, 1000)
	})

	cfg := config.DefaultAppConfig()
	ev := New(signalbus.New(), s, cfg)
	before := cfg.Weights.Snapshot()

	e := signalbus.Event{
		Pair: "BTC/USD", TS: 700, Price: 100, Rating: store.RatingBuy,
		FlowScore: 2, WhaleScore: 0,
	}
	out, done := ev.evaluate(e, 1000)

	require.True(t, done)
	require.NotNil(t, out.Ret5m)
	assert.InDelta(t, 2.0, *out.Ret5m, 0.001)
	require.NotNil(t, out.EvalHorizonSec)
	assert.Equal(t, 300.0, *out.EvalHorizonSec)

	after := cfg.Weights.Snapshot()
	assert.Greater(t, after.Flow, before.Flow)
	assert.Equal(t, before.Whale, after.Whale) // WhaleScore was 0, untouched
}

func TestEvaluate_FailingOutcomeLowersPositiveScoreWeights(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("ETH/USD")
	entry.With(func(entry *store.Entry) {
		entry.Candle.Update(97, 1000)
	})

	cfg := config.DefaultAppConfig()
	ev := New(signalbus.New(), s, cfg)
	before := cfg.Weights.Snapshot()

	e := signalbus.Event{Pair: "ETH/USD", TS: 700, Price: 100, Rating: store.RatingBuy, WhaleScore: 3}
	_, done := ev.evaluate(e, 1000)

	require.True(t, done)
	after := cfg.Weights.Snapshot()
	assert.Less(t, after.Whale, before.Whale)
}

func TestEvaluate_MissingPairLeavesEventUnevaluated(t *testing.T) {
	s := store.New()
	cfg := config.DefaultAppConfig()
	ev := New(signalbus.New(), s, cfg)

	e := signalbus.Event{Pair: "BTC/USD", TS: 700, Price: 100, Rating: store.RatingBuy}
	out, done := ev.evaluate(e, 1000)

	assert.False(t, done)
	assert.Nil(t, out.Ret5m)
}

func TestEvaluate_NoCandleYetLeavesEventUnevaluated(t *testing.T) {
	s := store.New()
	s.GetOrInsertDefault("BTC/USD") // present but never traded: Candle.Close stays 0
	cfg := config.DefaultAppConfig()
	ev := New(signalbus.New(), s, cfg)

	e := signalbus.Event{Pair: "BTC/USD", TS: 700, Price: 100, Rating: store.RatingBuy}
	out, done := ev.evaluate(e, 1000)

	assert.False(t, done)
	assert.Nil(t, out.Ret5m)
}

func TestRunOnce_RespectsHorizonAndEvaluatedFlag(t *testing.T) {
	s := store.New()
	entry := s.GetOrInsertDefault("BTC/USD")
	entry.With(func(entry *store.Entry) {
		entry.Candle.Update(100, 1000)
	})

	bus := signalbus.New()
	cfg := config.DefaultAppConfig()
	ev := New(bus, s, cfg)

	tooRecent := signalbus.Event{Pair: "BTC/USD", TS: 900, Price: 100, Rating: store.RatingBuy}
	readyForEval := signalbus.Event{Pair: "BTC/USD", TS: 600, Price: 100, Rating: store.RatingBuy}
	bus.Push(tooRecent)
	bus.Push(readyForEval)

	ev.runOnce(1000)

	events := bus.Snapshot()
	require.Len(t, events, 2)
	assert.False(t, events[0].Evaluated)
	assert.True(t, events[1].Evaluated)
}
