package signalbus

import "testing"

func TestBusDropsOldestOnOverflow(t *testing.T) {
	b := New()
	for i := 0; i < MaxEvents+10; i++ {
		b.Push(Event{TS: float64(i), Pair: "BTC/USD"})
	}
	snap := b.Snapshot()
	if len(snap) != MaxEvents {
		t.Fatalf("len = %d, want %d", len(snap), MaxEvents)
	}
	if snap[0].TS != 10 {
		t.Fatalf("oldest retained TS = %v, want 10 (first 10 dropped)", snap[0].TS)
	}
	if snap[len(snap)-1].TS != float64(MaxEvents+9) {
		t.Fatalf("newest TS = %v, want %v", snap[len(snap)-1].TS, MaxEvents+9)
	}
}

func TestBusRecentNewestFirst(t *testing.T) {
	b := New()
	b.Push(Event{TS: 1})
	b.Push(Event{TS: 2})
	b.Push(Event{TS: 3})
	recent := b.Recent(2)
	if len(recent) != 2 || recent[0].TS != 3 || recent[1].TS != 2 {
		t.Fatalf("Recent(2) = %+v, want [TS=3, TS=2]", recent)
	}
}

func TestEventsSinceSurvivesRingWraparound(t *testing.T) {
	b := New()
	for i := 0; i < MaxEvents; i++ {
		b.Push(Event{TS: float64(i)})
	}
	events, seq := b.EventsSince(0)
	if len(events) != MaxEvents {
		t.Fatalf("len = %d, want %d", len(events), MaxEvents)
	}

	for i := 0; i < 5; i++ {
		b.Push(Event{TS: float64(1000 + i)})
	}
	more, seq2 := b.EventsSince(seq)
	if len(more) != 5 {
		t.Fatalf("len = %d, want 5 new events since the previous cursor", len(more))
	}
	if more[0].TS != 1000 {
		t.Fatalf("first new event TS = %v, want 1000", more[0].TS)
	}
	if seq2 <= seq {
		t.Fatalf("cursor did not advance: seq=%d seq2=%d", seq, seq2)
	}
}

func TestMutateUnevaluatedSkipsEvaluated(t *testing.T) {
	b := New()
	b.Push(Event{TS: 0, Evaluated: true})
	b.Push(Event{TS: 0, Evaluated: false})
	calls := 0
	b.MutateUnevaluated(400, 300, func(e Event) (Event, bool) {
		calls++
		return e, true
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (already-evaluated event must be skipped)", calls)
	}
}

func TestMutateUnevaluatedRespectsHorizon(t *testing.T) {
	b := New()
	b.Push(Event{TS: 100})
	calls := 0
	b.MutateUnevaluated(200, 300, func(e Event) (Event, bool) {
		calls++
		return e, true
	})
	if calls != 0 {
		t.Fatalf("event younger than horizon should not be evaluated yet")
	}
	b.MutateUnevaluated(401, 300, func(e Event) (Event, bool) {
		calls++
		return e, true
	})
	if calls != 1 {
		t.Fatalf("event past horizon should be evaluated exactly once, got %d calls", calls)
	}
}
