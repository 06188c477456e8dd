package readapi

import (
	"sort"

	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// BacktestGroup is one `(signal_type, direction)` bucket of the `backtest`
// view (spec §4.8).
type BacktestGroup struct {
	SignalType      signalbus.Type  `json:"signal_type"`
	Direction       store.Direction `json:"direction"`
	N               int             `json:"n"`
	WinRate         float64         `json:"winrate"`
	AvgWin          float64         `json:"avg_win"`
	AvgLoss         float64         `json:"avg_loss"`
	Expectancy      float64         `json:"expectancy"`
	PnlSum          float64         `json:"pnl_sum"`
	MaxDrawdown     float64         `json:"max_drawdown"`
	MaxLosingStreak int             `json:"max_losing_streak"`
	BestTrade       float64         `json:"best_trade"`
	WorstTrade      float64         `json:"worst_trade"`
}

type groupKey struct {
	signalType signalbus.Type
	direction  store.Direction
}

// BuildBacktest groups evaluated events by (signal_type, direction) and
// computes the statistics named in spec §4.8. The source's best_trade /
// worst_trade sentinel fields were never populated (spec §9, treated as a
// bug); here they are computed directly from the event set.
func BuildBacktest(events []signalbus.Event) []BacktestGroup {
	groups := make(map[groupKey][]signalbus.Event)
	for _, e := range events {
		if !e.Evaluated || e.Ret5m == nil {
			continue
		}
		k := groupKey{signalType: e.SignalType, direction: e.Direction}
		groups[k] = append(groups[k], e)
	}

	out := make([]BacktestGroup, 0, len(groups))
	for k, evs := range groups {
		sort.Slice(evs, func(i, j int) bool { return evs[i].TS < evs[j].TS })
		out = append(out, buildGroup(k, evs))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Expectancy > out[j].Expectancy })
	return out
}

func buildGroup(k groupKey, evs []signalbus.Event) BacktestGroup {
	var wins, losses []float64
	var pnlSum float64
	best, worst := *evs[0].Ret5m, *evs[0].Ret5m

	for _, e := range evs {
		ret := *e.Ret5m
		pnlSum += ret
		if ret > 0 {
			wins = append(wins, ret)
		} else if ret < 0 {
			losses = append(losses, ret)
		}
		if ret > best {
			best = ret
		}
		if ret < worst {
			worst = ret
		}
	}

	n := len(evs)
	var winRate, avgWin, avgLoss float64
	if n > 0 {
		winRate = float64(len(wins)) / float64(n) * 100
	}
	if len(wins) > 0 {
		avgWin = mean(wins)
	}
	if len(losses) > 0 {
		avgLoss = mean(losses)
	}

	equity := make([]float64, 0, n)
	var cum float64
	for _, e := range evs {
		cum += *e.Ret5m
		equity = append(equity, cum)
	}

	return BacktestGroup{
		SignalType:      k.signalType,
		Direction:       k.direction,
		N:               n,
		WinRate:         winRate,
		AvgWin:          avgWin,
		AvgLoss:         avgLoss,
		Expectancy:      mean(retsOf(evs)),
		PnlSum:          pnlSum,
		MaxDrawdown:     maxDrawdown(equity),
		MaxLosingStreak: maxLosingStreak(evs),
		BestTrade:       best,
		WorstTrade:      worst,
	}
}

func retsOf(evs []signalbus.Event) []float64 {
	out := make([]float64, len(evs))
	for i, e := range evs {
		out[i] = *e.Ret5m
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// maxDrawdown walks the cumulative equity curve and returns the largest
// peak-to-trough decline.
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	var worst float64
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > worst {
			worst = dd
		}
	}
	return worst
}

func maxLosingStreak(evs []signalbus.Event) int {
	var streak, worst int
	for _, e := range evs {
		if *e.Ret5m < 0 {
			streak++
			if streak > worst {
				worst = streak
			}
		} else {
			streak = 0
		}
	}
	return worst
}
