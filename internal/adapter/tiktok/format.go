package tiktok

import (
	"fmt"
	"strings"
	"time"

	"tokscope/internal/domain/post"
	"tokscope/internal/service/virality"
)

// FormatDetails writes a post as the labelled text block the analysis engine reads back.
func FormatDetails(d post.Details) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}

	line(virality.LabelDescription, d.Description)
	line(virality.LabelVideoID, d.VideoID)
	if d.URL != "" {
		line("URL", d.URL)
	}
	if d.Author != "" {
		line(virality.LabelAuthor, d.Author)
	}
	if len(d.Hashtags) > 0 {
		line(virality.LabelHashtags, strings.Join(d.Hashtags, ", "))
	}
	line(virality.LabelLikes, virality.FormatCount(d.Likes))
	line(virality.LabelShares, virality.FormatCount(d.Shares))
	line(virality.LabelComments, virality.FormatCount(d.Comments))
	line(virality.LabelViews, virality.FormatCount(d.Views))
	line(virality.LabelBookmarks, virality.FormatCount(d.Bookmarks))
	if d.DurationSeconds > 0 {
		line(virality.LabelDuration, virality.FormatCount(d.DurationSeconds)+" seconds")
	}
	if !d.CreatedAt.IsZero() {
		line(virality.LabelCreated, d.CreatedAt.UTC().Format(time.RFC3339))
	}
	if len(d.SubtitleLanguages) > 0 {
		line(virality.LabelSubtitles, strings.Join(d.SubtitleLanguages, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatSearch lists search hits one per line, followed by the paging cursor.
func FormatSearch(r post.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q: %d\n", r.Query, len(r.Items))
	for i, item := range r.Items {
		desc := strings.Join(strings.Fields(item.Description), " ")
		fmt.Fprintf(&b, "%d. [%s] %s %s (likes %s, views %s)\n",
			i+1, item.VideoID, item.Author, desc,
			virality.FormatCount(item.Likes), virality.FormatCount(item.Views))
	}
	if r.HasMore {
		fmt.Fprintf(&b, "Next cursor: %d\n", r.Cursor)
	}
	return strings.TrimRight(b.String(), "\n")
}
