// internal/server/handlers/post.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tokscope/internal/adapter/tiktok"
	"tokscope/internal/domain/post"
	"tokscope/internal/service/analysis"
	"tokscope/pkg/logging"
)

// PostService is what the post handlers need from the analysis service
type PostService interface {
	Details(ctx context.Context, rawRef string) (*post.Details, error)
	Subtitle(ctx context.Context, rawRef, language string) (*post.Subtitle, error)
	Search(ctx context.Context, query post.SearchQuery) (*post.SearchResult, error)
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// PostHandler handles post and analysis HTTP requests
type PostHandler struct {
	service PostService
	logger  logging.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(service PostService, logger logging.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger,
	}
}

// GetDetails returns the metadata of a post
func (h *PostHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("url")
	if ref == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing url parameter", nil)
		return
	}

	d, err := h.service.Details(r.Context(), ref)
	if err != nil {
		h.respondWithServiceError(w, "Failed to get post details", err)
		return
	}

	respondWithJSON(w, http.StatusOK, d)
}

// GetSubtitle returns the transcript of a post
func (h *PostHandler) GetSubtitle(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("url")
	if ref == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing url parameter", nil)
		return
	}

	sub, err := h.service.Subtitle(r.Context(), ref, r.URL.Query().Get("language"))
	if err != nil {
		h.respondWithServiceError(w, "Failed to get subtitle", err)
		return
	}

	respondWithJSON(w, http.StatusOK, sub)
}

// Search runs a keyword search
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	keywords := strings.TrimSpace(r.URL.Query().Get("keywords"))
	if keywords == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing keywords parameter", nil)
		return
	}

	query := post.SearchQuery{Keywords: keywords}
	var err error
	if v := r.URL.Query().Get("count"); v != "" {
		if query.Count, err = strconv.Atoi(v); err != nil {
			respondWithError(w, h.logger, http.StatusBadRequest, "Invalid count", err)
			return
		}
	}
	if v := r.URL.Query().Get("cursor"); v != "" {
		if query.Cursor, err = strconv.Atoi(v); err != nil {
			respondWithError(w, h.logger, http.StatusBadRequest, "Invalid cursor", err)
			return
		}
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.respondWithServiceError(w, "Failed to search posts", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// CreateAnalysis runs a virality analysis
func (h *PostHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.PostRef) == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing post_url", nil)
		return
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.respondWithServiceError(w, "Failed to analyze post", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *PostHandler) respondWithServiceError(w http.ResponseWriter, message string, err error) {
	var apiErr *tiktok.APIError
	switch {
	case errors.Is(err, post.ErrInvalidReference):
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid post reference", err)
	case errors.Is(err, post.ErrNotFound):
		respondWithError(w, h.logger, http.StatusNotFound, "Post not found", err)
	case errors.Is(err, analysis.ErrNothingToAnalyze), errors.As(err, &apiErr):
		respondWithError(w, h.logger, http.StatusBadGateway, message, err)
	default:
		respondWithError(w, h.logger, http.StatusInternalServerError, message, err)
	}
}
