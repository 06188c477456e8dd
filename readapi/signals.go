package readapi

import "github.com/whaleradar/whaleradar/signalbus"

// Signals returns the newest-first SignalEvents, capped at 400 (spec §4.8
// "signals").
func Signals(bus *signalbus.Bus) []signalbus.Event {
	return bus.Recent(signalbus.MaxEvents)
}
