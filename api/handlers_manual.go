package api

import "net/http"

type manualTradeRequest struct {
	Pair         string  `json:"pair"`
	SLPct        float64 `json:"sl_pct"`
	TPPct        float64 `json:"tp_pct"`
	FeePct       float64 `json:"fee_pct"`
	ManualAmount float64 `json:"manual_amount"`
}

type manualTradeCloseRequest struct {
	Pair string `json:"pair"`
}

func (s *Server) handleManualTrades(w http.ResponseWriter, r *http.Request) {
	balance, initialBalance, _, trades, _ := s.Ledger.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":         balance,
		"initial_balance": initialBalance,
		"trades":          trades,
	})
}

func (s *Server) handleManualEquity(w http.ResponseWriter, r *http.Request) {
	_, _, _, _, equity := s.Ledger.Snapshot()
	writeJSON(w, http.StatusOK, equity)
}

func (s *Server) handleOpenManualTrade(w http.ResponseWriter, r *http.Request) {
	var req manualTradeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	if req.Pair == "" {
		respondError(w, http.StatusBadRequest, "pair is required", nil)
		return
	}
	if err := s.Ledger.Open(req.Pair, req.SLPct, req.TPPct, req.FeePct, req.ManualAmount); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCloseManualTrade(w http.ResponseWriter, r *http.Request) {
	var req manualTradeCloseRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	if req.Pair == "" {
		respondError(w, http.StatusBadRequest, "pair is required", nil)
		return
	}
	if err := s.Ledger.Close(req.Pair); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
