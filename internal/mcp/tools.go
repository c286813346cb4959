package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"tokscope/internal/adapter/tiktok"
	"tokscope/internal/domain/post"
	"tokscope/internal/service/analysis"
)

// Tool names
const (
	ToolGetPostDetails  = "tiktok_get_post_details"
	ToolGetSubtitle     = "tiktok_get_subtitle"
	ToolSearch          = "tiktok_search"
	ToolAnalyzeVirality = "tiktok_analyze_virality"
)

// --- tiktok_get_post_details ---

type postDetailsInput struct {
	PostURL string `json:"post_url" jsonschema:"required" jsonschema_description:"TikTok video URL or numeric video ID"`
}

func registerGetPostDetails(srv *mcp.Server, cfg Config) {
	mcp.AddTool(srv,
		&mcp.Tool{
			Name:        ToolGetPostDetails,
			Description: "Fetch the description, author, hashtags and engagement counters of a TikTok video.",
		},
		func(ctx context.Context, _ *mcp.CallToolRequest, args postDetailsInput) (*mcp.CallToolResult, any, error) {
			started := time.Now()
			res, out, errText := handleGetPostDetails(ctx, args, cfg)
			observe(ctx, cfg, ToolGetPostDetails, args.PostURL, started, errText)
			return res, out, nil
		},
	)
}

func handleGetPostDetails(ctx context.Context, args postDetailsInput, cfg Config) (*mcp.CallToolResult, any, string) {
	if cfg.Service == nil {
		return failed("post service unavailable")
	}
	if strings.TrimSpace(args.PostURL) == "" {
		return failed("post_url is required")
	}

	d, err := cfg.Service.Details(ctx, args.PostURL)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			return succeeded(post.NoDetailsText)
		}
		return failed(fmt.Sprintf("failed to fetch post details: %v", err))
	}
	return succeeded(tiktok.FormatDetails(*d))
}

// --- tiktok_get_subtitle ---

type subtitleInput struct {
	PostURL  string `json:"post_url" jsonschema:"required" jsonschema_description:"TikTok video URL or numeric video ID"`
	Language string `json:"language,omitempty" jsonschema_description:"Subtitle language code such as en or es (default: server setting)"`
}

func registerGetSubtitle(srv *mcp.Server, cfg Config) {
	mcp.AddTool(srv,
		&mcp.Tool{
			Name:        ToolGetSubtitle,
			Description: "Fetch the subtitle transcript of a TikTok video.",
		},
		func(ctx context.Context, _ *mcp.CallToolRequest, args subtitleInput) (*mcp.CallToolResult, any, error) {
			started := time.Now()
			res, out, errText := handleGetSubtitle(ctx, args, cfg)
			observe(ctx, cfg, ToolGetSubtitle, args.PostURL, started, errText)
			return res, out, nil
		},
	)
}

func handleGetSubtitle(ctx context.Context, args subtitleInput, cfg Config) (*mcp.CallToolResult, any, string) {
	if cfg.Service == nil {
		return failed("post service unavailable")
	}
	if strings.TrimSpace(args.PostURL) == "" {
		return failed("post_url is required")
	}

	sub, err := cfg.Service.Subtitle(ctx, args.PostURL, strings.TrimSpace(args.Language))
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			return succeeded(post.NoSubtitleText)
		}
		return failed(fmt.Sprintf("failed to fetch subtitle: %v", err))
	}
	return succeeded(sub.Text)
}

// --- tiktok_search ---

type searchInput struct {
	Keywords string `json:"keywords" jsonschema:"required" jsonschema_description:"Search keywords"`
	Count    int    `json:"count,omitempty" jsonschema_description:"Maximum number of posts to return (default 10, max 50)"`
	Cursor   int    `json:"cursor,omitempty" jsonschema_description:"Paging cursor returned by a previous search"`
}

func registerSearch(srv *mcp.Server, cfg Config) {
	mcp.AddTool(srv,
		&mcp.Tool{
			Name:        ToolSearch,
			Description: "Search TikTok videos by keywords. Returns JSON with items, cursor and has_more.",
		},
		func(ctx context.Context, _ *mcp.CallToolRequest, args searchInput) (*mcp.CallToolResult, any, error) {
			started := time.Now()
			res, out, errText := handleSearch(ctx, args, cfg)
			observe(ctx, cfg, ToolSearch, "", started, errText)
			return res, out, nil
		},
	)
}

func handleSearch(ctx context.Context, args searchInput, cfg Config) (*mcp.CallToolResult, any, string) {
	if cfg.Service == nil {
		return failed("post service unavailable")
	}
	keywords := strings.TrimSpace(args.Keywords)
	if keywords == "" {
		return failed("keywords is required")
	}

	result, err := cfg.Service.Search(ctx, post.SearchQuery{
		Keywords: keywords,
		Count:    args.Count,
		Cursor:   args.Cursor,
	})
	if err != nil {
		return failed(fmt.Sprintf("search failed: %v", err))
	}
	searchResultsCount.Observe(float64(len(result.Items)))

	res, out, _ := toolSuccessJSON(result)
	if res.IsError {
		return res, out, "failed to format result"
	}
	return res, out, ""
}

// --- tiktok_analyze_virality ---

type analyzeInput struct {
	PostURL  string `json:"post_url" jsonschema:"required" jsonschema_description:"TikTok video URL or numeric video ID"`
	Language string `json:"language,omitempty" jsonschema_description:"Subtitle language used for narrative signals (default: server setting)"`
}

func registerAnalyzeVirality(srv *mcp.Server, cfg Config) {
	mcp.AddTool(srv,
		&mcp.Tool{
			Name: ToolAnalyzeVirality,
			Description: "Assess the virality of a TikTok video: engagement metrics, hook/CTA/structure cues " +
				"from description and subtitles, and concrete recommendations. A missing subtitle or missing details " +
				"is reported as a warning; the call fails only when neither can be fetched.",
		},
		func(ctx context.Context, _ *mcp.CallToolRequest, args analyzeInput) (*mcp.CallToolResult, any, error) {
			started := time.Now()
			res, out, errText := handleAnalyzeVirality(ctx, args, cfg)
			observe(ctx, cfg, ToolAnalyzeVirality, args.PostURL, started, errText)
			return res, out, nil
		},
	)
}

func handleAnalyzeVirality(ctx context.Context, args analyzeInput, cfg Config) (*mcp.CallToolResult, any, string) {
	if cfg.Service == nil {
		return failed("post service unavailable")
	}
	if strings.TrimSpace(args.PostURL) == "" {
		return failed("post_url is required")
	}

	result, err := cfg.Service.Analyze(ctx, analysis.Request{
		PostRef:  args.PostURL,
		Language: strings.TrimSpace(args.Language),
	})
	if err != nil {
		return failed(fmt.Sprintf("analysis failed: %v", err))
	}
	engagementRate.Observe(result.Report.Metrics.EngagementRate)

	content := []mcp.Content{&mcp.TextContent{Text: result.Text}}
	if len(result.Warnings) > 0 {
		content = append(content, &mcp.TextContent{
			Text: "Warnings:\n- " + strings.Join(result.Warnings, "\n- "),
		})
	}
	return &mcp.CallToolResult{Content: content}, result, ""
}

func failed(message string) (*mcp.CallToolResult, any, string) {
	res, out, _ := toolError(message)
	return res, out, message
}

func succeeded(text string) (*mcp.CallToolResult, any, string) {
	res, out, _ := toolSuccess(text)
	return res, out, ""
}
