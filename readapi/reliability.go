package readapi

import "github.com/whaleradar/whaleradar/store"

// Reliability computes the composite REL score (spec glossary: "quality
// score [0,100] reflecting trade density, volume stability, flow
// consistency, recency, and temporal dispersion"), split into the five
// sub-scores named in spec §4.8: density(0-40), vol_stability(0-20),
// flow_consistency(0-20), recency(0-15), time_density(0-15).
func Reliability(t store.TradeState, now float64) (score float64, label string) {
	density := clamp(float64(t.TradeCount)/5, 0, 40)

	volStability := 0.0
	if t.EwmaVolume.Seeded() && t.EwmaTradeSize.Seeded() {
		deviation := absFloat(t.EwmaVolume.Value-t.EwmaTradeSize.Value) / maxOf(t.EwmaVolume.Value, t.EwmaTradeSize.Value, 1)
		volStability = clamp(20*(1-deviation), 0, 20)
	}

	flowConsistency := 0.0
	directional := t.LastDir == store.DirBuy || t.LastDir == store.DirSell
	if directional && t.LastDir == t.LastDir5m {
		flowConsistency = 20
	}

	ageSinceUpdate := now - t.LastUpdateTS
	recency := clamp(15*(1-ageSinceUpdate/60), 0, 15)

	windowFill := float64(t.FlowBuyLong.Len() + t.FlowSellLong.Len())
	timeDensity := clamp(windowFill/50*15, 0, 15)

	score = density + volStability + flowConsistency + recency + timeDensity
	return score, reliabilityLabel(score)
}

func reliabilityLabel(score float64) string {
	switch {
	case score >= 75:
		return "HIGH"
	case score >= 50:
		return "MEDIUM"
	case score >= 25:
		return "LOW"
	default:
		return "UNRELIABLE"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxOf(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
