package virality

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"tokscope/internal/domain/post"
)

const (
	// MinHashtags is the hashtag count below which more tags are suggested
	MinHashtags = 3

	// LowEngagementRate is the rate below which framing changes are suggested
	LowEngagementRate = 0.05
)

// Recommendation texts, in evaluation order
const (
	RecommendHook      = "Add a strong opening hook in the first 1-2 seconds (e.g. \"wait for it\", \"did you know\")."
	RecommendCTA       = "Add a lightweight call-to-action (e.g. \"follow for more\", \"comment below\")."
	RecommendStructure = "Add explicit structure or steps (e.g. \"step 1\", \"first ... then ... finally\") to keep viewers watching."
	RecommendHashtags  = "Add 3-5 relevant hashtags to improve discoverability."
	RecommendFraming   = "Engagement rate is under 5%; test alternative framing, pacing or a sharper opening."
)

// Analyze combines engagement metrics and narrative signals into a report.
func Analyze(d post.Details, subtitle string) post.Report {
	metrics := ComputeMetrics(d)
	signals := AnalyzeSignals(d.Description, subtitle)

	return post.Report{
		Metrics:         metrics,
		Signals:         signals,
		Recommendations: recommend(metrics, signals),
	}
}

func recommend(m post.Metrics, s post.Signals) []string {
	recs := []string{}
	if len(s.HookHits) == 0 {
		recs = append(recs, RecommendHook)
	}
	if len(s.CTAHits) == 0 {
		recs = append(recs, RecommendCTA)
	}
	if len(s.RetentionHits) == 0 {
		recs = append(recs, RecommendStructure)
	}
	if s.HashtagCount < MinHashtags {
		recs = append(recs, RecommendHashtags)
	}
	if m.EngagementRate < LowEngagementRate && m.Views > 0 {
		recs = append(recs, RecommendFraming)
	}
	return recs
}

// Render lays a report out as the fixed multi-section text handed to agents.
func Render(r post.Report) string {
	m, s := r.Metrics, r.Signals

	var b strings.Builder
	b.WriteString("Virality Analysis\n")
	fmt.Fprintf(&b, "Engagement: %s total (likes %s, shares %s, comments %s)\n",
		FormatCount(m.Engagement), FormatCount(m.Likes), FormatCount(m.Shares), FormatCount(m.Comments))
	fmt.Fprintf(&b, "Views: %s | Engagement rate: %.2f%%\n", FormatCount(m.Views), m.EngagementRate*100)
	if m.DurationSeconds != 0 {
		fmt.Fprintf(&b, "Duration: %s sec\n", FormatCount(m.DurationSeconds))
	}

	b.WriteString("\nNarrative Signals\n")
	fmt.Fprintf(&b, "- Hooks: %s\n", joinOrNone(s.HookHits))
	fmt.Fprintf(&b, "- CTAs: %s\n", joinOrNone(s.CTAHits))
	fmt.Fprintf(&b, "- Structure cues: %s\n", joinOrNone(s.RetentionHits))
	fmt.Fprintf(&b, "- Hashtags: %d\n", s.HashtagCount)

	b.WriteString("\nRecommendations\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Compose runs the whole analysis over the labelled details block and transcript text.
func Compose(detailsText, subtitleText string) string {
	return Render(Analyze(ParseDetailsText(detailsText), subtitleText))
}

// FormatCount renders a counter with en-US digit grouping ("12,345") whatever the host locale.
func FormatCount(v float64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

func joinOrNone(hits []string) string {
	if len(hits) == 0 {
		return "none"
	}
	return strings.Join(hits, ", ")
}
