// Package readapi implements C8: derives read-only snapshot, top-list,
// heatmap and backtest views from the live engine state (C1 + C5).
package readapi

import (
	"sort"

	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// Row is one pair's snapshot view (spec §4.8 "snapshot").
type Row struct {
	Pair string `json:"pair"`

	Price     float64 `json:"price"`
	PctChange float64 `json:"pct_change"`

	TotalScore float64      `json:"total_score"`
	Rating     store.Rating `json:"rating"`

	FlowScore    float64 `json:"flow_score"`
	PriceScore   float64 `json:"price_score"`
	WhaleScore   float64 `json:"whale_score"`
	VolumeScore  float64 `json:"volume_score"`
	AnomalyScore float64 `json:"anomaly_score"`
	TrendScore   float64 `json:"trend_score"`

	LastWhale         bool            `json:"last_whale"`
	LastWhaleSide     store.Direction `json:"last_whale_side"`
	LastWhaleVolume   float64         `json:"last_whale_volume"`
	LastWhaleNotional float64         `json:"last_whale_notional"`

	FlowPct   float64         `json:"flow_pct"`
	Dir       store.Direction `json:"dir"`
	FlowPct5m float64         `json:"flow_pct_5m"`
	Dir5m     store.Direction `json:"dir_5m"`

	PumpScore float64          `json:"pump_score"`
	PumpLabel store.PumpLabel  `json:"pump_label"`

	WhalePredScore float64              `json:"whale_pred_score"`
	WhalePredLabel store.WhalePredLabel `json:"whale_pred_label"`

	Early store.Direction `json:"early"`
	Alpha store.Direction `json:"alpha"`

	NewsSentiment float64 `json:"news_sentiment"`
	RecentAnom    bool    `json:"recent_anom"`
	LastUpdateTS  float64 `json:"last_update_ts"`

	Reliability      float64 `json:"reliability"`
	ReliabilityLabel string  `json:"reliability_label"`

	LastSignalType signalbus.Type `json:"last_signal_type"`
}

// BuildSnapshot returns one row per pair that currently qualifies (spec
// §4.8: "has a whale, has non-NONE early/alpha, or has ever been
// signalled"), sorted by total_score descending.
func BuildSnapshot(s *store.Store, bus *signalbus.Bus, now float64) []Row {
	lastSignal := lastSignalByPair(bus)

	rows := []Row{}
	s.Iter(func(pair string, e *store.Entry) {
		snap := e.Snapshot()
		t := snap.Trade
		if !t.LastWhale && t.LastEarly == "" && t.LastAlpha == "" && !t.HasSignalled {
			return
		}

		rel, label := Reliability(t, now)
		rows = append(rows, Row{
			Pair:              pair,
			Price:             snap.Candle.Close,
			PctChange:         snap.Candle.PctChange,
			TotalScore:        t.LastScore,
			Rating:            t.LastRating,
			FlowScore:         t.LastFlowScore,
			PriceScore:        t.LastPriceScore,
			WhaleScore:        t.LastWhaleScore,
			VolumeScore:       t.LastVolumeScore,
			AnomalyScore:      t.LastAnomalyScore,
			TrendScore:        t.LastTrendScore,
			LastWhale:         t.LastWhale,
			LastWhaleSide:     t.LastWhaleSide,
			LastWhaleVolume:   t.LastWhaleVolume,
			LastWhaleNotional: t.LastWhaleNotional,
			FlowPct:           t.LastFlowPct,
			Dir:               t.LastDir,
			FlowPct5m:         t.LastFlowPct5m,
			Dir5m:             t.LastDir5m,
			PumpScore:         t.LastPumpScore,
			PumpLabel:         t.LastPumpSignal,
			WhalePredScore:    t.WhalePredScore,
			WhalePredLabel:    t.WhalePredLabel,
			Early:             t.LastEarly,
			Alpha:             t.LastAlpha,
			NewsSentiment:     t.NewsSentiment,
			RecentAnom:        t.RecentAnom,
			LastUpdateTS:      t.LastUpdateTS,
			Reliability:       rel,
			ReliabilityLabel:  label,
			LastSignalType:    lastSignal[pair],
		})
	})

	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalScore > rows[j].TotalScore })
	return rows
}

// lastSignalByPair returns, for every pair with at least one event on the
// bus, the SignalType of its most recent event.
func lastSignalByPair(bus *signalbus.Bus) map[string]signalbus.Type {
	out := make(map[string]signalbus.Type)
	for _, e := range bus.Recent(signalbus.MaxEvents) {
		if _, ok := out[e.Pair]; !ok {
			out[e.Pair] = e.SignalType
		}
	}
	return out
}
