package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokscope/internal/adapter/tiktok"
	"tokscope/internal/config"
	"tokscope/internal/domain/audit"
	"tokscope/internal/domain/post"
	"tokscope/internal/service/analysis"
)

type fakePosts struct {
	detailsErr  error
	searchQuery post.SearchQuery
	analyzeReq  analysis.Request
	analyzeErr  error
}

func (f *fakePosts) Details(_ context.Context, rawRef string) (*post.Details, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	ref, err := post.ParseRef(rawRef)
	if err != nil {
		return nil, err
	}
	return &post.Details{VideoID: ref.VideoID, Likes: 42}, nil
}

func (f *fakePosts) Subtitle(_ context.Context, _ string, language string) (*post.Subtitle, error) {
	return &post.Subtitle{Language: language, Text: "hello"}, nil
}

func (f *fakePosts) Search(_ context.Context, q post.SearchQuery) (*post.SearchResult, error) {
	f.searchQuery = q
	return &post.SearchResult{Query: q.Keywords, Items: []post.Summary{}}, nil
}

func (f *fakePosts) Analyze(_ context.Context, req analysis.Request) (*analysis.Result, error) {
	f.analyzeReq = req
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &analysis.Result{ID: "an-1", Ref: req.PostRef, Text: "Virality Analysis"}, nil
}

type fakeReader struct {
	tool  string
	limit int
}

func (f *fakeReader) RecentCalls(_ context.Context, tool string, limit int) ([]audit.ToolCall, error) {
	f.tool, f.limit = tool, limit
	return []audit.ToolCall{{ID: "c1", Tool: "tiktok_search", Status: audit.StatusOK}}, nil
}

func newTestServer(deps Dependencies) *Server {
	return NewServer(config.ServerConfig{
		Host:        "127.0.0.1",
		Port:        0,
		CorsOrigins: []string{"*"},
	}, deps)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(Dependencies{Posts: &fakePosts{}})

	rec := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGetDetails(t *testing.T) {
	s := newTestServer(Dependencies{Posts: &fakePosts{}})

	rec := do(t, s, http.MethodGet, "/api/v1/posts/details?url=https://www.tiktok.com/@a/video/99", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var d post.Details
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "99", d.VideoID)
	assert.Equal(t, 42.0, d.Likes)
}

func TestGetDetailsErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		code   int
	}{
		{"missing url", "/api/v1/posts/details", nil, http.StatusBadRequest},
		{"invalid reference", "/api/v1/posts/details?url=nope", nil, http.StatusBadRequest},
		{"not found", "/api/v1/posts/details?url=1", post.ErrNotFound, http.StatusNotFound},
		{"backend error", "/api/v1/posts/details?url=1", &tiktok.APIError{StatusCode: 500}, http.StatusBadGateway},
		{"other error", "/api/v1/posts/details?url=1", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(Dependencies{Posts: &fakePosts{detailsErr: tt.err}})
			rec := do(t, s, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestGetSubtitle(t *testing.T) {
	s := newTestServer(Dependencies{Posts: &fakePosts{}})

	rec := do(t, s, http.MethodGet, "/api/v1/posts/subtitle?url=1&language=es", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sub post.Subtitle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "es", sub.Language)
}

func TestSearch(t *testing.T) {
	posts := &fakePosts{}
	s := newTestServer(Dependencies{Posts: posts})

	rec := do(t, s, http.MethodGet, "/api/v1/search?keywords=cats&count=5&cursor=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, post.SearchQuery{Keywords: "cats", Count: 5, Cursor: 20}, posts.searchQuery)

	rec = do(t, s, http.MethodGet, "/api/v1/search?keywords=cats&count=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAnalysis(t *testing.T) {
	posts := &fakePosts{}
	s := newTestServer(Dependencies{Posts: posts})

	rec := do(t, s, http.MethodPost, "/api/v1/analyses", `{"post_url":"123","language":"en"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, analysis.Request{PostRef: "123", Language: "en"}, posts.analyzeReq)

	var res analysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "an-1", res.ID)
}

func TestCreateAnalysisErrors(t *testing.T) {
	s := newTestServer(Dependencies{Posts: &fakePosts{analyzeErr: analysis.ErrNothingToAnalyze}})

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/v1/analyses", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/v1/analyses", `{"post_url":" "}`).Code)
	assert.Equal(t, http.StatusBadGateway, do(t, s, http.MethodPost, "/api/v1/analyses", `{"post_url":"1"}`).Code)
}

func TestToolCalls(t *testing.T) {
	reader := &fakeReader{}
	s := newTestServer(Dependencies{Posts: &fakePosts{}, ToolCalls: reader})

	rec := do(t, s, http.MethodGet, "/api/v1/tool-calls?tool=tiktok_search&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tiktok_search", reader.tool)
	assert.Equal(t, 5, reader.limit)

	var calls []audit.ToolCall
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calls))
	require.Len(t, calls, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/tool-calls?limit=-1", "").Code)
}

func TestToolCallsWithoutStore(t *testing.T) {
	s := newTestServer(Dependencies{Posts: &fakePosts{}})

	rec := do(t, s, http.MethodGet, "/api/v1/tool-calls", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsAndMCPMounted(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	s := newTestServer(Dependencies{Posts: &fakePosts{}, MCP: mcpHandler, MCPPath: "/mcp"})

	assert.Equal(t, http.StatusTeapot, do(t, s, http.MethodPost, "/mcp", `{}`).Code)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestFeedWithoutEvents(t *testing.T) {
	s := newTestServer(Dependencies{Posts: &fakePosts{}})

	rec := do(t, s, http.MethodGet, "/ws/analyses", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestShutdown(t *testing.T) {
	s := newTestServer(Dependencies{Posts: &fakePosts{}})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
