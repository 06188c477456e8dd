package store

// Sample is a single (timestamp, value) observation used by the rolling
// windows described in spec §3.
type Sample struct {
	TS    float64
	Value float64
}

// Window is a time-pruned sequence of Samples. Append always prunes
// samples older than the window, preserving the invariant "windowed
// sequences contain only samples with ts >= now - window".
type Window struct {
	Seconds float64
	samples []Sample
}

// NewWindow returns an empty Window spanning the given duration in
// seconds.
func NewWindow(seconds float64) Window {
	return Window{Seconds: seconds}
}

// Append adds a sample and prunes everything older than the window
// relative to the just-appended timestamp. Trade delivery is strictly
// ordered per pair (spec §5), so the newest timestamp is always the
// pruning reference.
func (w *Window) Append(ts, value float64) {
	w.samples = append(w.samples, Sample{TS: ts, Value: value})
	w.prune(ts)
}

func (w *Window) prune(now float64) {
	cutoff := now - w.Seconds
	i := 0
	for i < len(w.samples) && w.samples[i].TS < cutoff {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0], w.samples[i:]...)
	}
}

// Sum returns the sum of sample values currently in the window.
func (w *Window) Sum() float64 {
	var total float64
	for _, s := range w.samples {
		total += s.Value
	}
	return total
}

// Samples returns the window's current samples (newest last). Callers
// must not mutate the returned slice.
func (w *Window) Samples() []Sample {
	return w.samples
}

// Len reports the number of samples currently retained.
func (w *Window) Len() int {
	return len(w.samples)
}

// ValueAtAge returns the most recent sample whose age (relative to now)
// falls within [minAge, maxAge] seconds, used by the pump detector's
// lookback bands (spec §4.3 step 9). ok is false if no sample qualifies.
func (w *Window) ValueAtAge(now, minAge, maxAge float64) (value float64, ok bool) {
	// Walk from newest to oldest; the first sample whose age falls in
	// range is the most recent qualifying one.
	for i := len(w.samples) - 1; i >= 0; i-- {
		age := now - w.samples[i].TS
		if age < minAge {
			continue
		}
		if age > maxAge {
			break
		}
		return w.samples[i].Value, true
	}
	return 0, false
}

// EWMA is an exponentially weighted moving average with fixed alpha,
// seeded by its first sample (spec §3 "First sample seeds the EWMA with
// itself").
type EWMA struct {
	Alpha float64
	Value float64
	seeded bool
}

// NewEWMA returns an unseeded EWMA with the given alpha.
func NewEWMA(alpha float64) EWMA {
	return EWMA{Alpha: alpha}
}

// Update folds a new sample into the average.
func (e *EWMA) Update(x float64) {
	if !e.seeded {
		e.Value = x
		e.seeded = true
		return
	}
	e.Value += e.Alpha * (x - e.Value)
}

// Seeded reports whether at least one sample has been folded in.
func (e *EWMA) Seeded() bool { return e.seeded }

// Direction is the dominant side of a flow window.
type Direction string

const (
	DirBuy   Direction = "BUY"
	DirSell  Direction = "SELL"
	DirNeutr Direction = "NEUTR"
)

// PumpLabel classifies the pump detector's output (spec §4.3 step 9).
type PumpLabel string

const (
	PumpNone      PumpLabel = "NONE"
	PumpEarly     PumpLabel = "EARLY_PUMP"
	PumpMega      PumpLabel = "MEGA_PUMP"
)

// WhalePredLabel classifies the whale-prediction score (spec §4.3 step 11).
type WhalePredLabel string

const (
	WhalePredNone   WhalePredLabel = "NONE"
	WhalePredLow    WhalePredLabel = "LOW"
	WhalePredMedium WhalePredLabel = "MEDIUM"
	WhalePredHigh   WhalePredLabel = "HIGH"
)

// Rating is the composite-score ladder bucket (spec §4.3 step 10).
type Rating string

const (
	RatingNone      Rating = "NONE"
	RatingEarlyBuy  Rating = "EARLY BUY"
	RatingBuy       Rating = "BUY"
	RatingStrongBuy Rating = "STRONG BUY"
	RatingAlphaBuy  Rating = "ALPHA BUY"
)

// TradeState is the per-pair rolling trade state described in spec §3.
type TradeState struct {
	BuyVolume  float64
	SellVolume float64
	TradeCount int64

	EwmaTradeSize EWMA
	EwmaNotional  EWMA
	EwmaVolume    EWMA

	FlowBuyShort  Window
	FlowSellShort Window
	FlowBuyLong   Window
	FlowSellLong  Window
	PriceWindow   Window

	LastWhale         bool
	LastWhaleSide     Direction
	LastWhaleVolume   float64
	LastWhaleNotional float64

	LastFlowPct   float64
	LastDir       Direction
	LastFlowPct5m float64
	LastDir5m     Direction

	LastFlowScore    float64
	LastPriceScore   float64
	LastWhaleScore   float64
	LastVolumeScore  float64
	LastAnomalyScore float64
	LastTrendScore   float64

	LastPumpScore  float64
	LastPumpSignal PumpLabel

	WhalePredScore float64
	WhalePredLabel WhalePredLabel

	LastEarly Direction
	LastAlpha Direction
	LastScore float64
	LastRating Rating

	NewsSentiment float64
	RecentAnom    bool

	LastUpdateTS float64

	// HasSignalled is set on any edge-triggered emission and keeps a pair
	// visible in snapshot rows even once detectors return to NONE (spec
	// §4.3 step 13, §4.8).
	HasSignalled bool
}

// Reset clears the trade state back to its unseeded zero state, used by
// the maintenance sweeper (C7) when a pair has gone 12h without a trade.
func (t *TradeState) Reset() {
	*t = TradeState{}
	t.defaultInit()
}

func (t *TradeState) defaultInit() {
	t.EwmaTradeSize = NewEWMA(0.1)
	t.EwmaNotional = NewEWMA(0.1)
	t.EwmaVolume = NewEWMA(0.1)
	t.FlowBuyShort = NewWindow(60)
	t.FlowSellShort = NewWindow(60)
	t.FlowBuyLong = NewWindow(300)
	t.FlowSellLong = NewWindow(300)
	t.PriceWindow = NewWindow(300)
	t.NewsSentiment = 0.5
	t.LastDir = DirNeutr
	t.LastDir5m = DirNeutr
	t.LastPumpSignal = PumpNone
	t.WhalePredLabel = WhalePredNone
	t.LastRating = RatingNone
}
