package analytics

import (
	"github.com/whaleradar/whaleradar/store"
)

type whalePredResult struct {
	Score float64
	Label store.WhalePredLabel
}

// evaluateWhalePrediction implements spec §4.3 step 11: a stealth-
// accumulation surrogate for an imminent whale print. The flow and
// stealth-size terms only count when the current trade is not itself a
// whale print. ret5s/ret30s are the raw (signed, unclamped) returns from the pump
// detector, used here for the "quiet price" check.
func evaluateWhalePrediction(ts *store.TradeState, isWhale bool, volume float64, flowPctShort float64, dirShort store.Direction, flowPctLong float64, dirLong store.Direction, volRatio, ret5s, ret30s, pctChange float64, bookFresh bool, bidRatio float64) whalePredResult {
	var score float64

	if !isWhale && dirShort == store.DirBuy && flowPctShort > 60 {
		score += (flowPctShort - 60) * 0.08
	}
	if !isWhale && dirLong == store.DirBuy && flowPctLong > 55 {
		score += (flowPctLong - 55) * 0.06
	}
	if !isWhale && ts.EwmaTradeSize.Seeded() && volume < 0.8*ts.EwmaTradeSize.Value {
		score += 1
	}
	if absFloat(ret5s) < 0.5 && absFloat(ret30s) < 1.0 && pctChange >= -0.5 {
		score += 1
	}
	if volRatio < 1.3 {
		score += 0.5
	}
	if bookFresh && bidRatio > 0.65 {
		score += (bidRatio - 0.65) * 2
	}

	score = clampRange(score, 0, 10)
	return whalePredResult{Score: score, Label: whalePredLabelFor(score)}
}

func whalePredLabelFor(score float64) store.WhalePredLabel {
	switch {
	case score >= 7:
		return store.WhalePredHigh
	case score >= 4:
		return store.WhalePredMedium
	case score >= 2:
		return store.WhalePredLow
	default:
		return store.WhalePredNone
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
