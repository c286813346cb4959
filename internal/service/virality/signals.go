package virality

import (
	"regexp"
	"strings"

	"tokscope/internal/domain/post"
)

var hashtagRe = regexp.MustCompile(`#\w+`)

// AnalyzeSignals scans the description and transcript for narrative cues.
// Hashtags are counted in the description alone, phrases anywhere in either text.
func AnalyzeSignals(description, subtitle string) post.Signals {
	text := strings.ToLower(description + "\n" + subtitle)

	return post.Signals{
		HashtagCount:  len(hashtagRe.FindAllString(description, -1)),
		HookHits:      matchPhrases(text, hookPhrases),
		CTAHits:       matchPhrases(text, ctaPhrases),
		RetentionHits: matchPhrases(text, retentionPhrases),
	}
}

func matchPhrases(text string, phrases []string) []string {
	hits := []string{}
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			hits = append(hits, phrase)
		}
	}
	return hits
}
