package mcp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tokscope",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total MCP tool calls by tool, transport and outcome",
		},
		[]string{"tool", "transport", "status"},
	)

	toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tokscope",
			Subsystem: "mcp",
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of MCP tool calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	searchResultsCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tokscope",
			Subsystem: "mcp",
			Name:      "search_results_count",
			Help:      "Number of posts returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50},
		},
	)

	engagementRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tokscope",
			Subsystem: "analysis",
			Name:      "engagement_rate",
			Help:      "Engagement rate of analyzed posts",
			Buckets:   []float64{0, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1},
		},
	)
)
