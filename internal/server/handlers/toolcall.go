// internal/server/handlers/toolcall.go

package handlers

import (
	"net/http"
	"strconv"

	"tokscope/internal/domain/audit"
	"tokscope/pkg/logging"
)

// ToolCallHandler serves the tool-call audit log
type ToolCallHandler struct {
	reader audit.Reader
	logger logging.Logger
}

// NewToolCallHandler creates a new tool call handler
func NewToolCallHandler(reader audit.Reader, logger logging.Logger) *ToolCallHandler {
	return &ToolCallHandler{
		reader: reader,
		logger: logger,
	}
}

// ListToolCalls returns recent tool invocations, newest first
func (h *ToolCallHandler) ListToolCalls(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondWithError(w, h.logger, http.StatusServiceUnavailable, "Audit log is not configured", nil)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(w, h.logger, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	calls, err := h.reader.RecentCalls(r.Context(), r.URL.Query().Get("tool"), limit)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to list tool calls", err)
		return
	}

	respondWithJSON(w, http.StatusOK, calls)
}
