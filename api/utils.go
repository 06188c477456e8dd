package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// writeJSON encodes v as the response body. Encoding failures are logged
// but cannot themselves produce a second response (spec §7 "all handler
// paths are total").
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode API response")
	}
}

// respondError logs the error and sends a well-formed {success:false}
// JSON response (spec §7 "API input" and "all handler paths are total").
func respondError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Warn().Err(err).Int("code", code).Msg(message)
	} else {
		log.Warn().Int("code", code).Msg(message)
	}
	writeJSON(w, code, map[string]any{"success": false, "error": message})
}

// decodeJSONBody decodes r's body into dest, returning a descriptive error
// on malformed JSON rather than panicking.
func decodeJSONBody(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}
