// Package evaluator implements C6: the self-tuning loop that scores past
// signals against realized outcomes and adjusts the scoring weights that
// produced them.
package evaluator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/scoring"
	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// Evaluator periodically closes the loop between emitted signals and their
// realized outcome (spec §4.6).
type Evaluator struct {
	Bus    *signalbus.Bus
	Store  *store.Store
	Config *config.AppConfig
}

func New(bus *signalbus.Bus, s *store.Store, cfg *config.AppConfig) *Evaluator {
	return &Evaluator{Bus: bus, Store: s, Config: cfg}
}

// Run blocks until ctx is canceled, running one evaluation pass every
// EvaluatorIntervalSec.
func (ev *Evaluator) Run(ctx context.Context) error {
	tunables := ev.Config.Get()
	ticker := time.NewTicker(time.Duration(tunables.EvaluatorIntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ev.runOnce(float64(time.Now().Unix()))
		}
	}
}

func (ev *Evaluator) runOnce(now float64) {
	tunables := ev.Config.Get()
	ev.Bus.MutateUnevaluated(now, tunables.EvaluatorHorizonSec, func(e signalbus.Event) (signalbus.Event, bool) {
		return ev.evaluate(e, now)
	})
}

// evaluate implements spec §4.6's per-event logic. It returns false when the
// companion price is unavailable so the event is retried on the next pass
// instead of being permanently marked evaluated with no realized return.
func (ev *Evaluator) evaluate(e signalbus.Event, now float64) (signalbus.Event, bool) {
	if e.Rating == store.RatingNone {
		return e, true
	}

	entry, ok := ev.Store.Get(e.Pair)
	if !ok {
		return e, false
	}
	currentClose := entry.Snapshot().Candle.Close
	if currentClose <= 0 || e.Price <= 0 {
		return e, false
	}

	ret := (currentClose - e.Price) / e.Price * 100
	factor := outcomeFactor(ret)

	ev.adjustWeights(e, factor)

	horizon := now - e.TS
	e.Ret5m = &ret
	e.EvalHorizonSec = &horizon

	log.Info().Str("pair", e.Pair).Str("type", string(e.SignalType)).Float64("ret_5m", ret).Float64("factor", factor).Msg("signal evaluated")
	return e, true
}

// outcomeFactor classifies the realized return into the weight-adjustment
// multiplier (spec §4.6: strong >=2% x1.02, weak [0.5,2)% x1.01, fail
// <=-0.5% x0.98, otherwise no adjustment).
func outcomeFactor(ret float64) float64 {
	switch {
	case ret >= 2:
		return 1.02
	case ret >= 0.5:
		return 1.01
	case ret <= -0.5:
		return 0.98
	default:
		return 1.0
	}
}

// adjustWeights multiplies every weight component whose corresponding
// *_score was positive at emission time by factor.
func (ev *Evaluator) adjustWeights(e signalbus.Event, factor float64) {
	if factor == 1.0 {
		return
	}
	w := ev.Config.Weights
	if e.FlowScore > 0 {
		w.Adjust(scoring.ComponentFlow, factor)
	}
	if e.PriceScore > 0 {
		w.Adjust(scoring.ComponentPrice, factor)
	}
	if e.WhaleScore > 0 {
		w.Adjust(scoring.ComponentWhale, factor)
	}
	if e.VolumeScore > 0 {
		w.Adjust(scoring.ComponentVolume, factor)
	}
	if e.AnomalyScore > 0 {
		w.Adjust(scoring.ComponentAnomaly, factor)
	}
	if e.TrendScore > 0 {
		w.Adjust(scoring.ComponentTrend, factor)
	}
}
