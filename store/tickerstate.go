package store

// AnomalyRecord is the most recent ticker-level anomaly observed for a
// pair (spec §3, §4.4).
type AnomalyRecord struct {
	TS       float64
	Dir      Direction
	Strength float64
}

// TickerState is the per-pair REST-ticker-derived state (spec §3).
type TickerState struct {
	LastPrice    float64
	Vol24h       float64
	Open24h      float64
	EwmaVol24h   EWMA
	EwmaAbsRet   EWMA
	LastAnomaly  AnomalyRecord
	LastUpdateTS float64
	hasPrior     bool
}

func (t *TickerState) defaultInit() {
	t.EwmaVol24h = NewEWMA(0.1)
	t.EwmaAbsRet = NewEWMA(0.1)
}

// HasPrior reports whether at least one ticker sample has been observed,
// needed to compute jump/day_ret/vol_ratio on the second-and-later sample.
func (t *TickerState) HasPrior() bool { return t.hasPrior }

// MarkObserved records that a ticker sample has now been folded in.
func (t *TickerState) MarkObserved() { t.hasPrior = true }

// AnomalyFresh reports whether the stored anomaly strength is usable as
// context for a trade at time ts (spec §4.3 step 7: age in [0, 600]s).
func (t *TickerState) AnomalyFresh(ts float64) (strength float64, ok bool) {
	age := ts - t.LastAnomaly.TS
	if age >= 0 && age <= 600 {
		return t.LastAnomaly.Strength, true
	}
	return 0, false
}
