// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"net/http"

	"tokscope/pkg/logging"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, logger logging.Logger, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 && logger != nil {
		logger.WithError(err).WithField("code", code).Error(message)
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(jsonResponse)
}
