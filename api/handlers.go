package api

import (
	"context"
	"net/http"
	"time"

	"github.com/whaleradar/whaleradar/readapi"
)

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><title>WhaleRadar</title></head>
<body>
<h1>WhaleRadar</h1>
<p>Read-only JSON endpoints:</p>
<ul>
<li><a href="/api/stats">/api/stats</a> — per-pair snapshot rows</li>
<li><a href="/api/signals">/api/signals</a> — last 400 signal events</li>
<li><a href="/api/top10">/api/top10</a> — best3 / risers / fallers</li>
<li><a href="/api/heatmap">/api/heatmap</a> — flow/pump heatmap points</li>
<li><a href="/api/backtest">/api/backtest</a> — evaluated-signal statistics</li>
<li><a href="/api/stars_history">/api/stars_history</a> — whale-prediction history</li>
<li><a href="/api/news">/api/news</a> — news feed stub</li>
<li><a href="/api/manual_trades">/api/manual_trades</a> — paper trading ledger</li>
<li><a href="/api/manual_equity">/api/manual_equity</a> — paper trading equity curve</li>
<li><a href="/api/config">/api/config</a> — live tunables</li>
</ul>
</body>
</html>
`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(dashboardHTML))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rows := cached(s, r.Context(), "whaleradar:stats", func() []readapi.Row {
		return readapi.BuildSnapshot(s.Store, s.Bus, nowSeconds())
	})
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, readapi.Signals(s.Bus))
}

func (s *Server) handleTop10(w http.ResponseWriter, r *http.Request) {
	lists := cached(s, r.Context(), "whaleradar:top10", func() readapi.TopLists {
		rows := readapi.BuildSnapshot(s.Store, s.Bus, nowSeconds())
		return readapi.BuildTopLists(rows)
	})
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	points := cached(s, r.Context(), "whaleradar:heatmap", func() []readapi.HeatmapPoint {
		rows := readapi.BuildSnapshot(s.Store, s.Bus, nowSeconds())
		return readapi.BuildHeatmap(rows)
	})
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	groups := readapi.BuildBacktest(s.Bus.Snapshot())
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleStarsHistory(w http.ResponseWriter, r *http.Request) {
	if s.Stars == nil {
		writeJSON(w, http.StatusOK, []readapi.StarEntry{})
		return
	}
	writeJSON(w, http.StatusOK, s.Stars.Snapshot())
}

// handleNews is a static stub answering {items: []}: news sentiment tagging
// is out of scope (SPEC_FULL.md), but the endpoint exists.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
}

func nowSeconds() float64 {
	return float64(time.Now().Unix())
}

// cached serves key from the response cache when available, otherwise
// computes it, stores it back and returns it. A nil or unreachable Redis
// client is a silent miss every time (SPEC_FULL.md: "degrades to direct
// computation").
func cached[T any](s *Server, ctx context.Context, key string, compute func() T) T {
	var out T
	if s.Cache != nil {
		if err := s.Cache.Get(ctx, key, &out); err == nil {
			return out
		}
	}
	out = compute()
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, key, out, snapshotCacheTTL)
	}
	return out
}
