package virality

import (
	"math"

	"tokscope/internal/domain/post"
)

// ComputeMetrics derives engagement figures from a post's counters.
// Zero views yield a zero engagement rate.
func ComputeMetrics(d post.Details) post.Metrics {
	m := post.Metrics{
		Likes:           nonNegative(d.Likes),
		Shares:          nonNegative(d.Shares),
		Comments:        nonNegative(d.Comments),
		Views:           nonNegative(d.Views),
		DurationSeconds: nonNegative(d.DurationSeconds),
	}

	m.Engagement = m.Likes + m.Shares + m.Comments
	if m.Views > 0 {
		m.EngagementRate = m.Engagement / m.Views
	}
	m.SocialProof = m.Shares + m.Comments

	return m
}

// MetricsFromText computes metrics straight from a labelled details block
func MetricsFromText(block string) post.Metrics {
	return ComputeMetrics(ParseDetailsText(block))
}

func nonNegative(v float64) float64 {
	if v > 0 && !math.IsInf(v, 1) {
		return v
	}
	return 0
}
