// Package store implements C1: a process-wide concurrent mapping from pair
// key to per-pair state, with fine-grained per-key locking so readers and
// writers on different pairs never contend.
package store

import "sync"

// Entry bundles the four per-pair state blocks behind one mutex. All four
// are written by the same small set of writers (C2/C3/C4) under the
// single-owning-writer-per-pair invariant, so one mutex per entry is
// sufficient without becoming a process-wide bottleneck: different pairs
// get different Entries and therefore different mutexes.
type Entry struct {
	mu sync.Mutex

	Trade     TradeState
	Candle    CandleState
	Ticker    TickerState
	Orderbook OrderbookState
}

// With runs fn with the entry's lock held. All field mutation and
// multi-field reads of an Entry must go through With or Snapshot.
func (e *Entry) With(fn func(*Entry)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

// Snapshot returns a value copy of the entry's state taken under lock, for
// read paths (C8) that need a point-in-time view without holding the lock
// across further work.
func (e *Entry) Snapshot() Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Entry{Trade: e.Trade, Candle: e.Candle, Ticker: e.Ticker, Orderbook: e.Orderbook}
}

// Store is the concurrent pair -> Entry map described by C1.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// GetOrInsertDefault returns the Entry for pair, creating a zero-valued one
// on first observation (spec §3 "Lifecycle").
func (s *Store) GetOrInsertDefault(pair string) *Entry {
	s.mu.RLock()
	e, ok := s.entries[pair]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[pair]; ok {
		return e
	}
	e = &Entry{}
	e.Candle.defaultInit()
	e.Trade.defaultInit()
	e.Ticker.defaultInit()
	s.entries[pair] = e
	return e
}

// Get returns the Entry for pair without creating one.
func (s *Store) Get(pair string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[pair]
	return e, ok
}

// Insert overwrites (or creates) the Entry for pair wholesale.
func (s *Store) Insert(pair string, e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[pair] = e
}

// Delete evicts pair entirely.
func (s *Store) Delete(pair string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, pair)
}

// Iter calls fn for every pair currently present, passing the live Entry
// (fn takes its own lock via With or Snapshot). It offers no cross-key
// atomicity: a pair
// inserted or removed mid-iteration may or may not be observed, matching
// spec §4.1.
func (s *Store) Iter(fn func(pair string, e *Entry)) {
	s.mu.RLock()
	pairs := make([]string, 0, len(s.entries))
	entries := make([]*Entry, 0, len(s.entries))
	for p, e := range s.entries {
		pairs = append(pairs, p)
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for i, p := range pairs {
		fn(p, entries[i])
	}
}

// Retain keeps only pairs for which predicate returns true, evicting the
// rest.
func (s *Store) Retain(predicate func(pair string, e *Entry) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p, e := range s.entries {
		if !predicate(p, e) {
			delete(s.entries, p)
		}
	}
}

// Len returns the number of tracked pairs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
