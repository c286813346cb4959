package virality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokscope/internal/domain/post"
)

const scenarioDetails = "Description: Check this out #fun #cats\n    Video ID: 123\n    Likes: 1,000\n    Shares: 50\n    Comments: 25\n    Views: 10,000\n    Duration: 15 seconds"

const scenarioSubtitle = "wait for it, follow for more"

func TestAnalyzeScenario(t *testing.T) {
	report := Analyze(ParseDetailsText(scenarioDetails), scenarioSubtitle)

	assert.Equal(t, 1075.0, report.Metrics.Engagement)
	assert.InDelta(t, 0.1075, report.Metrics.EngagementRate, 1e-12)
	assert.Equal(t, []string{"wait for it"}, report.Signals.HookHits)
	assert.Equal(t, []string{"follow for more"}, report.Signals.CTAHits)
	assert.Equal(t, 2, report.Signals.HashtagCount)

	assert.Contains(t, report.Recommendations, RecommendHashtags)
	assert.NotContains(t, report.Recommendations, RecommendHook)
	assert.NotContains(t, report.Recommendations, RecommendCTA)
	assert.NotContains(t, report.Recommendations, RecommendFraming)
}

func TestComposeScenario(t *testing.T) {
	out := Compose(scenarioDetails, scenarioSubtitle)

	want := strings.Join([]string{
		"Virality Analysis",
		"Engagement: 1,075 total (likes 1,000, shares 50, comments 25)",
		"Views: 10,000 | Engagement rate: 10.75%",
		"Duration: 15 sec",
		"",
		"Narrative Signals",
		"- Hooks: wait for it",
		"- CTAs: follow for more",
		"- Structure cues: none",
		"- Hashtags: 2",
		"",
		"Recommendations",
		"- " + RecommendStructure,
		"- " + RecommendHashtags,
	}, "\n")
	assert.Equal(t, want, out)
}

func TestComposeZeroViews(t *testing.T) {
	details := "Description: quick one\nVideo ID: 9\nLikes: 10\nShares: 1\nComments: 2\nViews: 0"
	out := Compose(details, "")

	assert.Contains(t, out, "Engagement rate: 0.00%")
	assert.NotContains(t, out, RecommendFraming)
	assert.NotContains(t, out, "Duration:")
}

func TestComposeLowEngagementRate(t *testing.T) {
	details := "Description: x\nVideo ID: 1\nLikes: 10\nShares: 0\nComments: 0\nViews: 1,000"
	out := Compose(details, "")

	assert.Contains(t, out, "Engagement rate: 1.00%")
	assert.Contains(t, out, "- "+RecommendFraming)
}

func TestComposeTitleFirstAndNoDurationLine(t *testing.T) {
	for _, details := range []string{
		"",
		post.NoDetailsText,
		"Description: hi\nVideo ID: 1\nDuration: 0 seconds",
		"Description: hi\nVideo ID: 1\nDuration: n/a",
	} {
		out := Compose(details, post.NoSubtitleText)
		lines := strings.Split(out, "\n")
		require.NotEmpty(t, lines)
		assert.Equal(t, "Virality Analysis", lines[0])
		assert.NotContains(t, out, "Duration:")
	}
}

func TestHashtagRecommendationThreshold(t *testing.T) {
	withTags := func(desc string) []string {
		return Analyze(post.Details{Description: desc}, "").Recommendations
	}

	assert.Contains(t, withTags("#one #two"), RecommendHashtags)
	assert.NotContains(t, withTags("#one #two #three"), RecommendHashtags)
}

func TestRecommendationsAllSatisfied(t *testing.T) {
	d := post.Details{
		Description: "Did you know this? Step 1 then finally follow for more #a #b #c",
		Likes:       600,
		Views:       1000,
	}
	report := Analyze(d, "")

	assert.Empty(t, report.Recommendations)
	out := Render(report)
	assert.True(t, strings.HasSuffix(out, "Recommendations"))
}

func TestRecommendationOrder(t *testing.T) {
	report := Analyze(post.Details{Views: 100}, "")
	assert.Equal(t, []string{
		RecommendHook,
		RecommendCTA,
		RecommendStructure,
		RecommendHashtags,
		RecommendFraming,
	}, report.Recommendations)
}

func TestComposeIsDeterministic(t *testing.T) {
	first := Compose(scenarioDetails, scenarioSubtitle)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Compose(scenarioDetails, scenarioSubtitle))
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}
