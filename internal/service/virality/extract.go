package virality

import (
	"regexp"
	"strings"
	"time"

	"tokscope/internal/domain/post"
)

// Labels used by the post details text block
const (
	LabelDescription = "Description"
	LabelVideoID     = "Video ID"
	LabelAuthor      = "Author"
	LabelHashtags    = "Hashtags"
	LabelLikes       = "Likes"
	LabelShares      = "Shares"
	LabelComments    = "Comments"
	LabelViews       = "Views"
	LabelBookmarks   = "Bookmarks"
	LabelDuration    = "Duration"
	LabelCreated     = "Created"
	LabelSubtitles   = "Subtitles"
)

// description stops at any of these when the block has no Video ID line
var descriptionStopLabels = []string{
	LabelVideoID, LabelAuthor, LabelHashtags, LabelLikes, LabelShares, LabelComments,
	LabelViews, LabelBookmarks, LabelDuration, LabelCreated, LabelSubtitles,
}

var (
	descriptionRe = regexp.MustCompile(`(?s)` + LabelDescription + `:(.*?)` + LabelVideoID + `:`)
	nonDurationRe = regexp.MustCompile(`[^0-9.]`)
	fieldPatterns = map[string]*regexp.Regexp{}
)

func init() {
	for _, label := range append([]string{LabelDescription}, descriptionStopLabels...) {
		fieldPatterns[label] = fieldPattern(label)
	}
}

// fieldPattern matches a label only at the start of a line so label words inside
// the free-text description are not read as values.
func fieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(label) + `:[ \t]*([^\r\n]*)`)
}

// ExtractField returns the trimmed remainder of the first line opening with "<label>:".
func ExtractField(block, label string) string {
	re, ok := fieldPatterns[label]
	if !ok {
		re = fieldPattern(label)
	}
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractDescription returns everything between "Description:" and "Video ID:".
// Without a Video ID line the description runs until the next line that opens
// with a known label, or to the end of the block.
func ExtractDescription(block string) string {
	if m := descriptionRe.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}

	idx := strings.Index(block, LabelDescription+":")
	if idx < 0 {
		return ""
	}
	rest := block[idx+len(LabelDescription)+1:]

	lines := strings.Split(rest, "\n")
	kept := lines[:1]
	for _, line := range lines[1:] {
		if startsWithLabel(line) {
			break
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func startsWithLabel(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, label := range descriptionStopLabels {
		if strings.HasPrefix(trimmed, label+":") {
			return true
		}
	}
	return false
}

// ExtractDuration returns the Duration field reduced to digits and decimal points.
func ExtractDuration(block string) string {
	return nonDurationRe.ReplaceAllString(ExtractField(block, LabelDuration), "")
}

// ParseDetailsText adapts the labelled details block into a structured record.
// Missing labels leave zero values behind.
func ParseDetailsText(block string) post.Details {
	d := post.Details{
		VideoID:         ExtractField(block, LabelVideoID),
		Description:     ExtractDescription(block),
		Author:          ExtractField(block, LabelAuthor),
		Hashtags:        splitList(ExtractField(block, LabelHashtags)),
		Likes:           ParseNumber(ExtractField(block, LabelLikes)),
		Shares:          ParseNumber(ExtractField(block, LabelShares)),
		Comments:        ParseNumber(ExtractField(block, LabelComments)),
		Views:           ParseNumber(ExtractField(block, LabelViews)),
		Bookmarks:       ParseNumber(ExtractField(block, LabelBookmarks)),
		DurationSeconds: ParseNumber(ExtractDuration(block)),
	}

	if created := ExtractField(block, LabelCreated); created != "" {
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			d.CreatedAt = ts
		}
	}
	d.SubtitleLanguages = splitList(ExtractField(block, LabelSubtitles))

	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
