package api

import (
	"net/http"

	"github.com/whaleradar/whaleradar/config"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.App.Snapshot())
}

func (s *Server) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	var tunables config.Tunables
	if err := decodeJSONBody(r, &tunables); err != nil {
		respondError(w, http.StatusBadRequest, "malformed config body", err)
		return
	}
	s.Config.App.Apply(tunables)
	if err := s.Config.Save(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to persist config", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.Config.Reset(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reset config", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
