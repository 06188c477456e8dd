package analytics

import (
	"github.com/whaleradar/whaleradar/store"
)

// pumpResult is the intermediate output of the pump detector (spec §4.3
// step 9); Ret5s/Ret30s are exposed raw (signed, unclamped) so the whale
// prediction "quiet price" check (step 11) can read the true magnitude
// instead of the zero-floored value used in the pump score sum.
type pumpResult struct {
	Score  float64
	Conf   float64
	Label  store.PumpLabel
	Ret5s  float64
	Ret30s float64
}

func evaluatePump(ts *store.TradeState, now, currentPrice, flowPctShort float64, dirShort store.Direction, flowPctLong float64, dirLong store.Direction, volRatio, whaleScore float64) pumpResult {
	ret5s := rawReturn(ts, now, currentPrice, 5, 7)
	ret30s := rawReturn(ts, now, currentPrice, 30, 40)
	ret120s := rawReturn(ts, now, currentPrice, 110, 130)

	c5 := clampNonNeg(ret5s)
	c30 := clampNonNeg(ret30s)
	c120 := clampNonNeg(ret120s)

	var score float64
	if c5 > 0.3 {
		score += (c5 - 0.3) * 2
	}
	if c30 > 1.0 {
		score += (c30 - 1.0) * 1
	}
	if c120 > 2.0 {
		score += (c120 - 2.0) * 0.5
	}
	if dirShort == store.DirBuy && flowPctShort > 65 {
		score += (flowPctShort - 65) * 0.08
	}
	if dirLong == store.DirBuy && flowPctLong > 60 {
		score += (flowPctLong - 60) * 0.06
	}
	if volRatio > 1.5 {
		score += (volRatio - 1.5) * 1
	}
	score += 0.7 * whaleScore
	score = clampRange(score, 0, 10)

	var conf float64
	if c5 > 0.5 {
		conf += 0.4
	}
	if c30 > 1.5 {
		conf += 0.3
	}
	if c120 > 3.0 {
		conf += 0.2
	}
	if dirShort == store.DirBuy && flowPctShort > 70 {
		conf += 0.3
	}
	if dirLong == store.DirBuy && flowPctLong > 65 {
		conf += 0.2
	}
	if volRatio > 2.0 {
		conf += 0.2
	}
	if whaleScore >= 2 {
		conf += 0.2
	}

	label := store.PumpNone
	switch {
	case score >= 7 && conf >= 0.9 && dirShort == store.DirBuy:
		label = store.PumpMega
	case score >= 4 && conf >= 0.5 && dirShort == store.DirBuy:
		label = store.PumpEarly
	}

	return pumpResult{Score: score, Conf: conf, Label: label, Ret5s: ret5s, Ret30s: ret30s}
}

// rawReturn returns the signed percentage return from the price window
// sample whose age falls in [minAge, maxAge] up to the latest observed
// price, or 0 if no sample qualifies.
func rawReturn(ts *store.TradeState, now, currentPrice, minAge, maxAge float64) float64 {
	then, ok := ts.PriceWindow.ValueAtAge(now, minAge, maxAge)
	if !ok || then == 0 {
		return 0
	}
	return (currentPrice - then) / then * 100
}

func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
