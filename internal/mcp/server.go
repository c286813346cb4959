// Package mcp exposes the post retrieval and virality tools to AI agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"tokscope/internal/domain/audit"
	"tokscope/internal/domain/post"
	"tokscope/internal/service/analysis"
	"tokscope/pkg/logging"
)

// Transport labels used in metrics and the audit log
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

const defaultServerName = "tokscope"

// PostService is the analysis service surface the tools call into
type PostService interface {
	Details(ctx context.Context, rawRef string) (*post.Details, error)
	Subtitle(ctx context.Context, rawRef, language string) (*post.Subtitle, error)
	Search(ctx context.Context, query post.SearchQuery) (*post.SearchResult, error)
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Config configures the MCP server
type Config struct {
	Name      string
	Version   string
	Transport string
	Service   PostService
	Recorder  audit.Recorder
	Logger    logging.Logger
}

// NewServer creates an MCP server with every tool registered
func NewServer(cfg Config) *mcp.Server {
	if cfg.Name == "" {
		cfg.Name = defaultServerName
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDiscardLogger()
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	registerGetPostDetails(srv, cfg)
	registerGetSubtitle(srv, cfg)
	registerSearch(srv, cfg)
	registerAnalyzeVirality(srv, cfg)

	return srv
}

// NewHTTPHandler serves the tools over streamable HTTP
func NewHTTPHandler(cfg Config, stateless bool) http.Handler {
	cfg.Transport = TransportHTTP
	srv := NewServer(cfg)
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return srv },
		&mcp.StreamableHTTPOptions{Stateless: stateless},
	)
}

// RunStdio serves the tools over stdin/stdout until ctx is done or the client disconnects
func RunStdio(ctx context.Context, cfg Config) error {
	cfg.Transport = TransportStdio
	return NewServer(cfg).Run(ctx, &mcp.StdioTransport{})
}

// observe counts the call and writes it to the audit log
func observe(ctx context.Context, cfg Config, tool, ref string, started time.Time, callErr string) {
	elapsed := time.Since(started)
	status := audit.StatusOK
	if callErr != "" {
		status = audit.StatusError
	}

	toolCallsTotal.WithLabelValues(tool, cfg.Transport, status).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())

	entry := cfg.Logger.WithFields(logging.Fields{
		"tool":        tool,
		"transport":   cfg.Transport,
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
	})
	if callErr != "" {
		entry.WithField("error", callErr).Warn("tool call failed")
	} else {
		entry.Debug("tool call")
	}

	if cfg.Recorder == nil {
		return
	}
	err := cfg.Recorder.RecordCall(context.WithoutCancel(ctx), audit.ToolCall{
		ID:        uuid.New().String(),
		Tool:      tool,
		Transport: cfg.Transport,
		PostRef:   ref,
		Status:    status,
		ErrorText: callErr,
		Duration:  elapsed,
		StartedAt: started,
	})
	if err != nil {
		cfg.Logger.WithError(err).WithField("tool", tool).Error("error recording tool call")
	}
}

func toolError(message string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}, nil, nil
}

func toolSuccess(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func toolSuccessJSON(result any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("failed to format result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, result, nil
}
