package readapi

import (
	"sort"

	"github.com/whaleradar/whaleradar/store"
)

// TopLists is the `top10` view (spec §4.8): best3 and risers by the
// composite rank key, fallers by a sell-oriented key.
type TopLists struct {
	Best3   []Row `json:"best3"`
	Risers  []Row `json:"risers"`
	Fallers []Row `json:"fallers"`
}

// rankKey is the shared top-list ranking key: total_score plus a bonus for
// pump and whale-prediction activity.
func rankKey(r Row) float64 {
	return r.TotalScore + 1.5*r.PumpScore + 1.0*r.WhalePredScore
}

// fallerKey favors larger negative moves with elevated sell-side flow.
func fallerKey(r Row) float64 {
	return 0.5*(-r.PctChange) + 0.1*maxZero(r.FlowPct-50)
}

func maxZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// BuildTopLists derives best3/risers/fallers from already-built snapshot
// rows.
func BuildTopLists(rows []Row) TopLists {
	ranked := append([]Row(nil), rows...)
	sort.Slice(ranked, func(i, j int) bool { return rankKey(ranked[i]) > rankKey(ranked[j]) })
	best3 := ranked
	if len(best3) > 3 {
		best3 = best3[:3]
	}

	var risers, fallers []Row
	for _, r := range rows {
		if r.Dir == store.DirBuy && r.PctChange > 0 {
			risers = append(risers, r)
		}
		if r.Dir == store.DirSell && r.PctChange < 0 {
			fallers = append(fallers, r)
		}
	}
	sort.Slice(risers, func(i, j int) bool { return rankKey(risers[i]) > rankKey(risers[j]) })
	sort.Slice(fallers, func(i, j int) bool { return fallerKey(fallers[i]) > fallerKey(fallers[j]) })
	if len(risers) > 10 {
		risers = risers[:10]
	}
	if len(fallers) > 10 {
		fallers = fallers[:10]
	}

	return TopLists{Best3: append([]Row(nil), best3...), Risers: risers, Fallers: fallers}
}
