// Package signalbus implements C5: a bounded FIFO ring of SignalEvents.
package signalbus

import (
	"sync"

	"github.com/whaleradar/whaleradar/store"
)

// MaxEvents bounds the ring; on overflow the oldest event is dropped.
const MaxEvents = 400

// Type identifies the kind of signal emitted by the analytics engine.
type Type string

const (
	TypeWhale     Type = "WHALE"
	TypeAnomaly   Type = "ANOM"
	TypeEarly     Type = "EARLY"
	TypeAlpha     Type = "ALPHA"
	TypeEarlyPump Type = "EARLY_PUMP"
	TypeMegaPump  Type = "MEGA_PUMP"
	TypeWhalePred Type = "WH_PRED"
)

// Event is the SignalEvent described in spec §3.
type Event struct {
	// Seq is a monotonically increasing id assigned at Push time. Unlike a
	// slice index it survives the ring's drop-oldest rotation, so
	// consumers (e.g. the stars tracker) can track "events since N"
	// without losing their place once the ring fills.
	Seq uint64

	TS         float64
	Pair       string
	SignalType Type
	Direction  store.Direction

	Strength float64
	FlowPct  float64
	Pct      float64

	Whale      bool
	WhaleSide  store.Direction
	Volume     float64
	Notional   float64
	Price      float64

	Rating     store.Rating
	TotalScore float64

	FlowScore    float64
	PriceScore   float64
	WhaleScore   float64
	VolumeScore  float64
	AnomalyScore float64
	TrendScore   float64

	Evaluated      bool
	Ret5m          *float64
	EvalHorizonSec *float64
}

// Bus is the append-only (per pair) ring of Events. Across pairs ordering
// is best-effort, matching spec §4.5.
type Bus struct {
	mu      sync.Mutex
	events  []Event
	nextSeq uint64
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{events: make([]Event, 0, MaxEvents)}
}

// Push appends an event, dropping the oldest entry if the ring is full.
func (b *Bus) Push(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) >= MaxEvents {
		// Drop-oldest: shift left by one.
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
	}
	b.nextSeq++
	e.Seq = b.nextSeq
	b.events = append(b.events, e)
}

// Snapshot returns a consistent point-in-time copy of all events, oldest
// first.
func (b *Bus) Snapshot() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Recent returns up to n events, newest first.
func (b *Bus) Recent(n int) []Event {
	all := b.Snapshot()
	if n > len(all) || n <= 0 {
		n = len(all)
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = all[len(all)-1-i]
	}
	return out
}

// EventsSince returns every event with Seq > afterSeq, oldest first, plus
// the highest Seq observed (0 if none). Unlike indexing into Snapshot by
// length, this stays correct once the ring has dropped its oldest events:
// a Seq already below the ring's current floor simply yields every event
// still held, rather than an empty slice.
func (b *Bus) EventsSince(afterSeq uint64) (events []Event, lastSeq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lastSeq = afterSeq
	for _, e := range b.events {
		if e.Seq > afterSeq {
			events = append(events, e)
			if e.Seq > lastSeq {
				lastSeq = e.Seq
			}
		}
	}
	return events, lastSeq
}

// MutateUnevaluated applies fn to every event older than minAgeSec (relative
// to nowTS) that has not yet been evaluated, used by the self-evaluator
// (C6). fn returns the updated event and whether it should now be marked
// evaluated.
func (b *Bus) MutateUnevaluated(nowTS, minAgeSec float64, fn func(Event) (Event, bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		e := b.events[i]
		if e.Evaluated {
			continue
		}
		if nowTS-e.TS < minAgeSec {
			continue
		}
		updated, done := fn(e)
		updated.Evaluated = done
		b.events[i] = updated
	}
}
