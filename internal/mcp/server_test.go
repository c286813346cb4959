package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokscope/internal/domain/audit"
	"tokscope/internal/domain/post"
	"tokscope/internal/service/analysis"
	"tokscope/internal/service/virality"
)

type fakeService struct {
	details     *post.Details
	detailsErr  error
	subtitle    *post.Subtitle
	subtitleErr error
	search      *post.SearchResult
	searchQuery post.SearchQuery
	result      *analysis.Result
	analyzeErr  error

	mu sync.Mutex
}

func (f *fakeService) Details(_ context.Context, _ string) (*post.Details, error) {
	return f.details, f.detailsErr
}

func (f *fakeService) Subtitle(_ context.Context, _ string, _ string) (*post.Subtitle, error) {
	return f.subtitle, f.subtitleErr
}

func (f *fakeService) Search(_ context.Context, q post.SearchQuery) (*post.SearchResult, error) {
	f.mu.Lock()
	f.searchQuery = q
	f.mu.Unlock()
	return f.search, nil
}

func (f *fakeService) Analyze(_ context.Context, _ analysis.Request) (*analysis.Result, error) {
	return f.result, f.analyzeErr
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []audit.ToolCall
}

func (r *fakeRecorder) RecordCall(_ context.Context, c audit.ToolCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return nil
}

func (r *fakeRecorder) snapshot() []audit.ToolCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.ToolCall(nil), r.calls...)
}

func testSession(t *testing.T, cfg Config) *mcp.ClientSession {
	t.Helper()
	ts := httptest.NewServer(NewHTTPHandler(cfg, true))
	t.Cleanup(ts.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{Endpoint: ts.URL}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	return result
}

func extractText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListTools(t *testing.T) {
	session := testSession(t, Config{Service: &fakeService{}})

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		if tool.Name == ToolAnalyzeVirality {
			assert.Contains(t, tool.Description, "fails only when neither can be fetched")
		}
	}
	assert.ElementsMatch(t, []string{ToolGetPostDetails, ToolGetSubtitle, ToolSearch, ToolAnalyzeVirality}, names)
}

func TestGetPostDetails(t *testing.T) {
	rec := &fakeRecorder{}
	svc := &fakeService{details: &post.Details{VideoID: "7", Description: "hello #a", Likes: 1234}}
	session := testSession(t, Config{Service: svc, Recorder: rec})

	result := callTool(t, session, ToolGetPostDetails, map[string]any{"post_url": "7"})
	require.False(t, result.IsError, extractText(result))

	text := extractText(result)
	assert.Contains(t, text, "Description: hello #a")
	assert.Contains(t, text, "Likes: 1,234")
	assert.Equal(t, "hello #a", virality.ExtractDescription(text))

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, ToolGetPostDetails, calls[0].Tool)
	assert.Equal(t, TransportHTTP, calls[0].Transport)
	assert.Equal(t, "7", calls[0].PostRef)
	assert.Equal(t, audit.StatusOK, calls[0].Status)
}

func TestGetPostDetailsBackendError(t *testing.T) {
	rec := &fakeRecorder{}
	svc := &fakeService{detailsErr: errors.New("backend returned status 502")}
	session := testSession(t, Config{Service: svc, Recorder: rec})

	result := callTool(t, session, ToolGetPostDetails, map[string]any{"post_url": "7"})
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(result), "status 502")

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, audit.StatusError, calls[0].Status)
	assert.NotEmpty(t, calls[0].ErrorText)
}

func TestGetPostDetailsNotFound(t *testing.T) {
	session := testSession(t, Config{Service: &fakeService{detailsErr: post.ErrNotFound}})

	result := callTool(t, session, ToolGetPostDetails, map[string]any{"post_url": "7"})
	assert.False(t, result.IsError)
	assert.Equal(t, post.NoDetailsText, extractText(result))
}

func TestGetSubtitle(t *testing.T) {
	svc := &fakeService{subtitle: &post.Subtitle{Language: "en", Text: "wait for it"}}
	session := testSession(t, Config{Service: svc})

	result := callTool(t, session, ToolGetSubtitle, map[string]any{"post_url": "7", "language": "en"})
	assert.False(t, result.IsError)
	assert.Equal(t, "wait for it", extractText(result))
}

func TestGetSubtitleMissing(t *testing.T) {
	session := testSession(t, Config{Service: &fakeService{subtitleErr: post.ErrNotFound}})

	result := callTool(t, session, ToolGetSubtitle, map[string]any{"post_url": "7"})
	assert.False(t, result.IsError)
	assert.Equal(t, post.NoSubtitleText, extractText(result))
}

func TestSearch(t *testing.T) {
	svc := &fakeService{search: &post.SearchResult{
		Query:   "cats",
		Items:   []post.Summary{{VideoID: "1", Likes: 10}},
		Cursor:  10,
		HasMore: true,
	}}
	session := testSession(t, Config{Service: svc})

	result := callTool(t, session, ToolSearch, map[string]any{"keywords": "cats", "count": 5})
	require.False(t, result.IsError, extractText(result))

	var got post.SearchResult
	require.NoError(t, json.Unmarshal([]byte(extractText(result)), &got))
	assert.Equal(t, "cats", got.Query)
	require.Len(t, got.Items, 1)
	assert.True(t, got.HasMore)
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, 5, svc.searchQuery.Count)
}

func TestSearchBlankKeywords(t *testing.T) {
	session := testSession(t, Config{Service: &fakeService{}})

	result := callTool(t, session, ToolSearch, map[string]any{"keywords": "  "})
	assert.True(t, result.IsError)
	assert.Equal(t, "keywords is required", extractText(result))
}

func TestAnalyzeVirality(t *testing.T) {
	report := virality.Analyze(post.Details{Description: "did you know #a", Likes: 10, Views: 100}, "")
	svc := &fakeService{result: &analysis.Result{
		ID:       "an-1",
		Report:   report,
		Text:     virality.Render(report),
		Warnings: []string{"subtitle unavailable: post not found"},
	}}
	session := testSession(t, Config{Service: svc})

	result := callTool(t, session, ToolAnalyzeVirality, map[string]any{"post_url": "7"})
	require.False(t, result.IsError, extractText(result))

	require.Len(t, result.Content, 2)
	assert.Equal(t, virality.Render(report), extractText(result))
	warn, ok := result.Content[1].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, warn.Text, "subtitle unavailable")
}

func TestAnalyzeViralityFailure(t *testing.T) {
	svc := &fakeService{analyzeErr: analysis.ErrNothingToAnalyze}
	session := testSession(t, Config{Service: svc})

	result := callTool(t, session, ToolAnalyzeVirality, map[string]any{"post_url": "7"})
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(result), "analysis failed")
	assert.Contains(t, extractText(result), analysis.ErrNothingToAnalyze.Error())
}

func TestToolsWithoutService(t *testing.T) {
	session := testSession(t, Config{})

	result := callTool(t, session, ToolGetSubtitle, map[string]any{"post_url": "7"})
	assert.True(t, result.IsError)
	assert.Equal(t, "post service unavailable", extractText(result))
}
