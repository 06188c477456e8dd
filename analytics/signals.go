package analytics

import (
	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// emissionInputs bundles the previous/current detector outputs needed to
// decide which edges fired on this trade (spec §4.3 step 13).
type emissionInputs struct {
	prevIsWhale, isWhale         bool
	prevPumpLabel, pumpLabel     store.PumpLabel
	prevWhalePredLabel           store.WhalePredLabel
	whalePredLabel               store.WhalePredLabel
	prevEarly, early             store.Direction
	prevAlpha, alpha             store.Direction
	flowPct, pct, notional       float64
	rating                       store.Rating
	total                        float64
	flowScore, priceScore        float64
	whaleScore, volumeScore      float64
	anomalyScore, trendScore     float64
}

func (e *Engine) emitSignals(in TradeInput, entry *store.Entry, ins emissionInputs) {
	base := signalbus.Event{
		TS:           in.TS,
		Pair:         in.Pair,
		Price:        in.Price,
		FlowPct:      ins.flowPct,
		Pct:          ins.pct,
		Whale:        ins.isWhale,
		Volume:       in.Volume,
		Notional:     ins.notional,
		Rating:       ins.rating,
		TotalScore:   ins.total,
		FlowScore:    ins.flowScore,
		PriceScore:   ins.priceScore,
		WhaleScore:   ins.whaleScore,
		VolumeScore:  ins.volumeScore,
		AnomalyScore: ins.anomalyScore,
		TrendScore:   ins.trendScore,
	}

	signalled := false

	if ins.whalePredLabel == store.WhalePredHigh && ins.prevWhalePredLabel != store.WhalePredHigh {
		ev := base
		ev.SignalType = signalbus.TypeWhalePred
		ev.Direction = store.DirBuy
		ev.Strength = 0 // whale-prediction score is carried via the pair's TradeState, not duplicated here
		e.Bus.Push(ev)
		signalled = true
		log.Info().Str("pair", in.Pair).Msg("whale prediction turned HIGH")
	}

	if (ins.pumpLabel == store.PumpEarly || ins.pumpLabel == store.PumpMega) && ins.pumpLabel != ins.prevPumpLabel {
		ev := base
		if ins.pumpLabel == store.PumpMega {
			ev.SignalType = signalbus.TypeMegaPump
		} else {
			ev.SignalType = signalbus.TypeEarlyPump
		}
		ev.Direction = store.DirBuy
		e.Bus.Push(ev)
		signalled = true
		log.Info().Str("pair", in.Pair).Str("label", string(ins.pumpLabel)).Msg("pump signal")
	}

	if ins.isWhale && !ins.prevIsWhale {
		ev := base
		ev.SignalType = signalbus.TypeWhale
		ev.Direction = in.Side
		ev.WhaleSide = in.Side
		e.Bus.Push(ev)
		signalled = true
		log.Info().Str("pair", in.Pair).Float64("notional", ins.notional).Msg("whale print")
	}

	if ins.early != "" && ins.early != ins.prevEarly {
		ev := base
		ev.SignalType = signalbus.TypeEarly
		ev.Direction = store.DirBuy
		e.Bus.Push(ev)
		signalled = true
	}
	if ins.alpha != "" && ins.alpha != ins.prevAlpha {
		ev := base
		ev.SignalType = signalbus.TypeAlpha
		ev.Direction = store.DirBuy
		e.Bus.Push(ev)
		signalled = true
	}

	if signalled {
		entry.Trade.HasSignalled = true
	}
}
