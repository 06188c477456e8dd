// Package scoring holds the composite-score weight vector shared between
// the trade analytics engine (reader) and the self-evaluator (writer).
package scoring

import "sync"

const (
	// MinWeight and MaxWeight bound every weight component, per spec.
	MinWeight = 0.2
	MaxWeight = 5.0
)

// Weights are the six positive multipliers applied to the per-trade
// component scores to produce the composite total_score. They default to
// the values in spec §3 and are the single source of truth for C3's
// scoring and C6's closed-loop adaptation (see SPEC_FULL.md's Open
// Question decision on the teacher's double-source-of-truth bug).
type Weights struct {
	mu sync.RWMutex

	Flow     float64
	Price    float64
	Whale    float64
	Volume   float64
	Anomaly  float64
	Trend    float64
}

// DefaultWeights returns a fresh Weights set to the spec defaults.
func DefaultWeights() *Weights {
	return &Weights{
		Flow:    2.2,
		Price:   0.7,
		Whale:   1.4,
		Volume:  1.3,
		Anomaly: 1.5,
		Trend:   1.1,
	}
}

// Snapshot is an immutable point-in-time copy of the weight vector, used
// by C3 so a trade's scoring pass never blocks on C6's adjustments and
// vice versa.
type Snapshot struct {
	Flow, Price, Whale, Volume, Anomaly, Trend float64
}

// Snapshot returns a consistent copy of the current weights.
func (w *Weights) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Snapshot{
		Flow:    w.Flow,
		Price:   w.Price,
		Whale:   w.Whale,
		Volume:  w.Volume,
		Anomaly: w.Anomaly,
		Trend:   w.Trend,
	}
}

// SetAll overwrites every component from a Snapshot, clamping each into
// bounds. Used when an operator pushes a full config replacement.
func (w *Weights) SetAll(s Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Flow = clamp(s.Flow)
	w.Price = clamp(s.Price)
	w.Whale = clamp(s.Whale)
	w.Volume = clamp(s.Volume)
	w.Anomaly = clamp(s.Anomaly)
	w.Trend = clamp(s.Trend)
}

// Component identifies one of the six weight slots, used by the
// self-evaluator to adjust only the components whose corresponding score
// was positive at emission time.
type Component int

const (
	ComponentFlow Component = iota
	ComponentPrice
	ComponentWhale
	ComponentVolume
	ComponentAnomaly
	ComponentTrend
)

// Adjust multiplies the given component by factor and clamps the result
// into [MinWeight, MaxWeight]. It is the self-evaluator's (C6) mutator;
// SetAll is the only other one, used for whole-config replacement/reset.
func (w *Weights) Adjust(c Component, factor float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch c {
	case ComponentFlow:
		w.Flow = clamp(w.Flow * factor)
	case ComponentPrice:
		w.Price = clamp(w.Price * factor)
	case ComponentWhale:
		w.Whale = clamp(w.Whale * factor)
	case ComponentVolume:
		w.Volume = clamp(w.Volume * factor)
	case ComponentAnomaly:
		w.Anomaly = clamp(w.Anomaly * factor)
	case ComponentTrend:
		w.Trend = clamp(w.Trend * factor)
	}
}

func clamp(v float64) float64 {
	if v < MinWeight {
		return MinWeight
	}
	if v > MaxWeight {
		return MaxWeight
	}
	return v
}
