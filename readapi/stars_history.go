package readapi

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// MaxStarsHistory bounds the stars_history list (spec §4.8 "bounded list
// of at most 1000 entries").
const MaxStarsHistory = 1000

// minFlushInterval is the persistence throttle named in spec §4.8 ("at
// most once per 60 s") and §6 ("flushed every 60 s when dirty").
const minFlushInterval = 60 * time.Second

// StarEntry is one row of the stars_history list: a WH_PRED signal that
// fired while the pair's recent_anom flag was set.
type StarEntry struct {
	TS             float64              `json:"ts"`
	Pair           string               `json:"pair"`
	WhalePredScore float64              `json:"whale_pred_score"`
	WhalePredLabel store.WhalePredLabel `json:"whale_pred_label"`
}

// StarsTracker watches the signal bus for WH_PRED events fired on pairs
// with a fresh anomaly flag and maintains the bounded, throttle-persisted
// stars_history list.
type StarsTracker struct {
	mu        sync.Mutex
	entries   []StarEntry
	dirty     bool
	lastSeq   uint64
	lastFlush time.Time
	file      string
}

// NewStarsTracker returns a tracker that persists to file.
func NewStarsTracker(file string) *StarsTracker {
	return &StarsTracker{file: file}
}

// LoadStarsTracker restores the history from file, falling back to an
// empty tracker on any read/parse error (spec §7).
func LoadStarsTracker(file string) *StarsTracker {
	t := NewStarsTracker(file)
	if data, err := os.ReadFile(file); err == nil {
		var entries []StarEntry
		if err := json.Unmarshal(data, &entries); err == nil {
			t.entries = entries
		}
	}
	return t
}

// Observe scans new bus events (since the last call) for WH_PRED signals
// on pairs whose recent_anom is true, appending a StarEntry for each. New
// is tracked by each event's monotonic Seq rather than the bus's current
// length, so it keeps working once the bus ring has filled and its length
// stops growing (spec §4.8's "whenever a WH_PRED signal fires").
func (t *StarsTracker) Observe(bus *signalbus.Bus, s *store.Store) {
	t.mu.Lock()
	after := t.lastSeq
	t.mu.Unlock()

	events, lastSeq := bus.EventsSince(after)

	t.mu.Lock()
	t.lastSeq = lastSeq
	t.mu.Unlock()

	for _, e := range events {
		if e.SignalType != signalbus.TypeWhalePred {
			continue
		}
		entry, ok := s.Get(e.Pair)
		if !ok {
			continue
		}
		snap := entry.Snapshot().Trade
		if !snap.RecentAnom {
			continue
		}
		t.append(StarEntry{
			TS: e.TS, Pair: e.Pair,
			WhalePredScore: snap.WhalePredScore, WhalePredLabel: snap.WhalePredLabel,
		})
	}
}

func (t *StarsTracker) append(entry StarEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if len(t.entries) > MaxStarsHistory {
		t.entries = t.entries[len(t.entries)-MaxStarsHistory:]
	}
	t.dirty = true
}

// Snapshot returns a copy of the current history, newest last.
func (t *StarsTracker) Snapshot() []StarEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StarEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// MaybeFlush persists the history to disk if dirty and at least
// minFlushInterval has elapsed since the last flush.
func (t *StarsTracker) MaybeFlush() {
	t.mu.Lock()
	if !t.dirty || time.Since(t.lastFlush) < minFlushInterval {
		t.mu.Unlock()
		return
	}
	entries := make([]StarEntry, len(t.entries))
	copy(entries, t.entries)
	t.dirty = false
	t.lastFlush = time.Now()
	t.mu.Unlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(t.file, data, 0o644); err != nil {
		log.Warn().Err(err).Str("file", t.file).Msg("failed to flush stars history")
	}
}
