package readapi

// HeatmapPoint is one `heatmap` entry (spec §4.8): `(pair, flow_pct,
// pump_score∈[0,10], ts, reliability_score)`.
type HeatmapPoint struct {
	Pair        string  `json:"pair"`
	FlowPct     float64 `json:"flow_pct"`
	PumpScore   float64 `json:"pump_score"`
	TS          float64 `json:"ts"`
	Reliability float64 `json:"reliability_score"`
}

// BuildHeatmap derives heatmap points from snapshot rows.
func BuildHeatmap(rows []Row) []HeatmapPoint {
	points := make([]HeatmapPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, HeatmapPoint{
			Pair:        r.Pair,
			FlowPct:     r.FlowPct,
			PumpScore:   r.PumpScore,
			TS:          r.LastUpdateTS,
			Reliability: r.Reliability,
		})
	}
	return points
}
