package analytics

import (
	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// TickerInput is a single REST ticker sample delivered by C2's poller.
type TickerInput struct {
	Pair    string
	Last    float64
	Vol24h  float64
	Open24h float64
	TS      float64
}

// OnTicker runs the C4 update pass (spec §4.4) for one ticker sample.
func (e *Engine) OnTicker(in TickerInput) {
	entry := e.Store.GetOrInsertDefault(in.Pair)

	entry.With(func(entry *store.Entry) {
		tk := &entry.Ticker
		candle := &entry.Candle

		// Open and keep updating the candle from ticker prices while the pair
		// has no trades; once a trade has been seen, OnTrade owns all further
		// updates to it.
		if !candle.Opened() || entry.Trade.TradeCount == 0 {
			candle.Update(in.Last, in.TS)
		}

		prevPrice := tk.LastPrice
		prevVol := tk.Vol24h
		hadPrior := tk.HasPrior()

		tk.EwmaVol24h.Update(in.Vol24h)
		absReturn := 0.0
		if hadPrior && prevPrice > 0 {
			absReturn = absFloat((in.Last - prevPrice) / prevPrice * 100)
		}
		tk.EwmaAbsRet.Update(absReturn)

		tk.LastPrice = in.Last
		tk.Vol24h = in.Vol24h
		tk.Open24h = in.Open24h
		tk.LastUpdateTS = in.TS
		tk.MarkObserved()

		if !hadPrior || prevPrice <= 0 || in.Open24h <= 0 {
			return
		}

		jump := absFloat(in.Last-prevPrice) / prevPrice * 100
		dayRet := (in.Last - in.Open24h) / in.Open24h * 100
		volRatio := safeRatio(in.Vol24h, prevVol)

		score := 2*jump + 0.5*absFloat(dayRet) + 20*maxFloat(0, volRatio-1) + tk.EwmaAbsRet.Value

		if score > 40 && (jump > 0.3 || volRatio > 2) {
			dir := store.DirSell
			if in.Last >= prevPrice {
				dir = store.DirBuy
			}
			tk.LastAnomaly = store.AnomalyRecord{TS: in.TS, Dir: dir, Strength: score}
			entry.Trade.RecentAnom = true

			ev := signalbus.Event{
				TS:         in.TS,
				Pair:       in.Pair,
				SignalType: signalbus.TypeAnomaly,
				Direction:  dir,
				Strength:   score,
				Pct:        dayRet,
				Price:      in.Last,
				Evaluated:  true, // anomalies carry their own strength; not re-evaluated later
			}
			e.Bus.Push(ev)
			entry.Trade.HasSignalled = true
			log.Info().Str("pair", in.Pair).Float64("score", score).Msg("ticker anomaly")
		}
	})
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
