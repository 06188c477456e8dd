// Package analytics implements C3 (trade analytics) and C4 (ticker/anomaly
// analytics): the per-trade and per-ticker update passes that maintain
// rolling statistics and emit edge-triggered SignalEvents.
package analytics

import (
	"math"

	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// Engine ties the pair state store, the signal bus and the live tunables
// together. A single Engine instance is shared by every ingestion worker;
// per-pair ordering is enforced by callers (spec §5), not by the Engine.
type Engine struct {
	Store  *store.Store
	Bus    *signalbus.Bus
	Config *config.AppConfig
}

// New creates an Engine over the given store/bus/config.
func New(s *store.Store, b *signalbus.Bus, cfg *config.AppConfig) *Engine {
	return &Engine{Store: s, Bus: b, Config: cfg}
}

// TradeInput is a single normalized trade delivered by C2's trade worker.
type TradeInput struct {
	Pair   string
	Price  float64
	Volume float64
	Side   store.Direction // DirBuy or DirSell
	TS     float64
}

// OnTrade runs the full C3 update pass (spec §4.3 steps 1-13) for one
// trade. Trades for a given pair must be delivered in timestamp order by
// the caller; OnTrade does not itself enforce ordering.
func (e *Engine) OnTrade(in TradeInput) {
	entry := e.Store.GetOrInsertDefault(in.Pair)
	tunables := e.Config.Get()
	weights := e.Config.Weights.Snapshot()

	entry.With(func(entry *store.Entry) {
		ts := &entry.Trade
		candle := &entry.Candle

		// 1. Accumulate.
		if in.Side == store.DirBuy {
			ts.BuyVolume += in.Volume
		} else {
			ts.SellVolume += in.Volume
		}
		ts.TradeCount++
		notional := in.Price * in.Volume
		ts.LastUpdateTS = in.TS

		// 2. EWMAs (alpha=0.1, first sample seeds).
		ts.EwmaTradeSize.Update(in.Volume)
		ts.EwmaNotional.Update(notional)
		ts.EwmaVolume.Update(in.Volume)

		// 3. Candle.
		candle.Update(in.Price, in.TS)

		// 4. Price window.
		ts.PriceWindow.Append(in.TS, in.Price)

		// 5. Flow windows.
		if in.Side == store.DirBuy {
			ts.FlowBuyShort.Append(in.TS, in.Volume)
			ts.FlowBuyLong.Append(in.TS, in.Volume)
		} else {
			ts.FlowSellShort.Append(in.TS, in.Volume)
			ts.FlowSellLong.Append(in.TS, in.Volume)
		}
		flowPctShort, dirShort := flowPercent(ts.FlowBuyShort.Sum(), ts.FlowSellShort.Sum(), 0.75, 0.25)
		flowPctLong, dirLong := flowPercent(ts.FlowBuyLong.Sum(), ts.FlowSellLong.Sum(), 0.70, 0.30)
		ts.LastFlowPct, ts.LastDir = flowPctShort, dirShort
		ts.LastFlowPct5m, ts.LastDir5m = flowPctLong, dirLong

		// 6. Whale detection.
		prevIsWhale := ts.LastWhale
		isWhale := notional > tunables.WhaleNotionalFloor && notional > tunables.WhaleEwmaMultiplier*ts.EwmaNotional.Value
		if isWhale {
			ts.LastWhaleSide = in.Side
			ts.LastWhaleVolume = in.Volume
			ts.LastWhaleNotional = notional
		}
		ts.LastWhale = isWhale

		// 7. Anomaly context.
		anomStrength, _ := entry.Ticker.AnomalyFresh(in.TS)

		// 8. Component scores.
		volRatio := safeRatio(in.Volume, ts.EwmaVolume.Value)
		bidRatio, bookFresh := 0.0, entry.Orderbook.Fresh(in.TS)
		if bookFresh {
			bidRatio, bookFresh = entry.Orderbook.BidRatio()
		}

		flowScore := flowScoreComponent(flowPctShort, flowPctLong, dirLong)
		priceScore := priceScoreComponent(candle.PctChange)
		whaleScore := whaleScoreComponent(notional, ts.EwmaNotional.Value, isWhale, in.Side, bookFresh, bidRatio)
		volumeScore := volumeScoreComponent(volRatio)
		anomalyScore := anomalyScoreComponent(anomStrength)
		trendScore := 0.0
		if isWhale && in.Side == store.DirBuy && candle.PctChange > 0 && flowPctShort > 60 {
			trendScore = 1
		}
		ts.LastFlowScore, ts.LastPriceScore, ts.LastWhaleScore = flowScore, priceScore, whaleScore
		ts.LastVolumeScore, ts.LastAnomalyScore, ts.LastTrendScore = volumeScore, anomalyScore, trendScore

		// 9. Pump detector.
		pump := evaluatePump(ts, in.TS, in.Price, flowPctShort, dirShort, flowPctLong, dirLong, volRatio, whaleScore)
		prevPumpLabel := ts.LastPumpSignal
		ts.LastPumpScore = pump.Score
		ts.LastPumpSignal = pump.Label

		// 10. Composite score & rating.
		total := weights.Flow*flowScore + weights.Price*priceScore + weights.Whale*whaleScore +
			weights.Volume*volumeScore + weights.Anomaly*anomalyScore + weights.Trend*trendScore
		rating := ratingFor(total)
		ts.LastScore = total
		ts.LastRating = rating

		// 11. Whale prediction.
		whalePred := evaluateWhalePrediction(ts, isWhale, in.Volume, flowPctShort, dirShort, flowPctLong, dirLong, volRatio, pump.Ret5s, pump.Ret30s, candle.PctChange, bookFresh, bidRatio)
		prevWhalePredLabel := ts.WhalePredLabel
		ts.WhalePredScore = whalePred.Score
		ts.WhalePredLabel = whalePred.Label

		// 12. Early/Alpha flags.
		prevEarly, prevAlpha := ts.LastEarly, ts.LastAlpha
		ts.LastEarly, ts.LastAlpha = earlyAlphaFor(rating)

		// 13. Edge-triggered signal emission.
		e.emitSignals(in, entry, emissionInputs{
			prevIsWhale: prevIsWhale, isWhale: isWhale,
			prevPumpLabel: prevPumpLabel, pumpLabel: pump.Label,
			prevWhalePredLabel: prevWhalePredLabel, whalePredLabel: whalePred.Label,
			prevEarly: prevEarly, early: ts.LastEarly,
			prevAlpha: prevAlpha, alpha: ts.LastAlpha,
			flowPct: flowPctShort, pct: candle.PctChange, notional: notional,
			rating: rating, total: total,
			flowScore: flowScore, priceScore: priceScore, whaleScore: whaleScore,
			volumeScore: volumeScore, anomalyScore: anomalyScore, trendScore: trendScore,
		})
	})
}

// flowPercent computes (flow_pct, dir) for one window pair given the
// configured buy-dominant / sell-dominant thresholds (spec §4.3 step 5).
func flowPercent(buy, sell, buyThreshold, sellThreshold float64) (float64, store.Direction) {
	total := buy + sell
	if total <= 0 {
		return 50, store.DirNeutr
	}
	ratio := buy / total
	switch {
	case ratio > buyThreshold:
		return ratio * 100, store.DirBuy
	case ratio < sellThreshold:
		return (1 - ratio) * 100, store.DirSell
	default:
		return 50, store.DirNeutr
	}
}

func flowScoreComponent(flowPctShort float64, flowPctLong float64, dirLong store.Direction) float64 {
	var short float64
	switch {
	case flowPctShort > 75:
		short = 3
	case flowPctShort > 65:
		short = 2
	case flowPctShort > 55:
		short = 1
	}
	var long float64
	if dirLong == store.DirBuy {
		switch {
		case flowPctLong > 75:
			long = 2
		case flowPctLong > 65:
			long = 1
		}
	}
	return math.Min(short+0.5*long, 3.0)
}

func priceScoreComponent(pctChange float64) float64 {
	switch {
	case pctChange > 2:
		return 3
	case pctChange > 1:
		return 2
	case pctChange > 0.3:
		return 1
	default:
		return 0
	}
}

func whaleScoreComponent(notional, ewmaNotional float64, isWhale bool, side store.Direction, bookFresh bool, bidRatio float64) float64 {
	var score float64
	switch {
	case notional > 50000 || notional > 6*ewmaNotional:
		score = 3
	case notional > 20000 && notional > 4*ewmaNotional:
		score = 2
	case isWhale:
		score = 1
	}
	if bookFresh {
		aggressive := (side == store.DirBuy && bidRatio > 0.65) || (side == store.DirSell && bidRatio < 0.35)
		if aggressive {
			score += 0.5
			extreme := (side == store.DirBuy && bidRatio > 0.75) || (side == store.DirSell && bidRatio < 0.25)
			if extreme {
				score += 0.3
			}
		}
	}
	return math.Min(score, 4.0)
}

func volumeScoreComponent(volRatio float64) float64 {
	switch {
	case volRatio > 2.5:
		return 3
	case volRatio > 1.5:
		return 2
	case volRatio > 1.2:
		return 1
	default:
		return 0
	}
}

func anomalyScoreComponent(strength float64) float64 {
	switch {
	case strength > 80:
		return 3
	case strength > 40:
		return 2
	case strength > 0:
		return 1
	default:
		return 0
	}
}

func ratingFor(total float64) store.Rating {
	switch {
	case total >= 7.5:
		return store.RatingAlphaBuy
	case total >= 5.0:
		return store.RatingStrongBuy
	case total >= 3.5:
		return store.RatingBuy
	case total >= 2.2:
		return store.RatingEarlyBuy
	default:
		return store.RatingNone
	}
}

// earlyAlphaFor derives (early, alpha) from the rating ladder (spec §4.3
// step 12).
func earlyAlphaFor(rating store.Rating) (early, alpha store.Direction) {
	switch rating {
	case store.RatingEarlyBuy, store.RatingBuy:
		return store.DirBuy, ""
	case store.RatingStrongBuy, store.RatingAlphaBuy:
		return store.DirBuy, store.DirBuy
	default:
		return "", ""
	}
}

func safeRatio(num, denom float64) float64 {
	if denom <= 0 {
		return 0
	}
	return num / denom
}
