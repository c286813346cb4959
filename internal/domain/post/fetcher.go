// internal/domain/post/fetcher.go

package post

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// Common errors
var (
	ErrNotFound         = errors.New("post not found")
	ErrInvalidReference = errors.New("invalid post reference")
)

// Fetcher defines the interface for retrieving post data from the platform backend
type Fetcher interface {
	// Details returns the metadata of a post
	Details(ctx context.Context, ref Ref) (*Details, error)

	// Subtitle returns the transcript of a post, language may be empty
	Subtitle(ctx context.Context, ref Ref, language string) (*Subtitle, error)

	// Search returns posts matching the query
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
}

// Ref identifies a post either by its share URL or by its numeric video ID
type Ref struct {
	URL     string
	VideoID string
}

var (
	videoIDRe = regexp.MustCompile(`^\d+$`)
	videoPath = regexp.MustCompile(`/video/(\d+)`)
	hostLike  = regexp.MustCompile(`^[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+(/|$)`)
)

// ParseRef accepts a full post URL, a link without a scheme or a bare numeric video ID
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, ErrInvalidReference
	}

	if videoIDRe.MatchString(raw) {
		return Ref{VideoID: raw}, nil
	}

	if !strings.Contains(raw, "://") && hostLike.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Ref{}, ErrInvalidReference
	}

	ref := Ref{URL: u.String()}
	if m := videoPath.FindStringSubmatch(u.Path); m != nil {
		ref.VideoID = m[1]
	}
	return ref, nil
}

// String returns the most specific representation of the reference
func (r Ref) String() string {
	if r.URL != "" {
		return r.URL
	}
	return r.VideoID
}
