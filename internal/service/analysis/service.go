// internal/service/analysis/service.go

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tokscope/internal/domain/post"
	"tokscope/internal/service/virality"
	"tokscope/pkg/logging"
)

// ErrNothingToAnalyze is returned when neither details nor subtitle could be fetched
var ErrNothingToAnalyze = errors.New("no details or subtitle available for analysis")

// Publisher is the slice of *nats.Conn the service needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Config contains configuration for the analysis service
type Config struct {
	EventsTopic     string
	DefaultLanguage string
	FetchTimeout    time.Duration
}

// Request identifies the post to analyze
type Request struct {
	PostRef  string `json:"post_url"`
	Language string `json:"language,omitempty"`
}

// Result is a completed analysis
type Result struct {
	ID         string        `json:"id"`
	Ref        string        `json:"post_url"`
	VideoID    string        `json:"video_id,omitempty"`
	Language   string        `json:"language,omitempty"`
	Report     post.Report   `json:"report"`
	Text       string        `json:"text"`
	Warnings   []string      `json:"warnings,omitempty"`
	Details    *post.Details `json:"details,omitempty"`
	AnalyzedAt time.Time     `json:"analyzed_at"`
}

// Event is the payload published when an analysis completes
type Event struct {
	ID              string    `json:"id"`
	Ref             string    `json:"post_url"`
	VideoID         string    `json:"video_id,omitempty"`
	Engagement      float64   `json:"engagement"`
	EngagementRate  float64   `json:"engagement_rate"`
	Views           float64   `json:"views"`
	Recommendations int       `json:"recommendations"`
	Warnings        []string  `json:"warnings,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// Service fetches post data and runs the virality engine over it
type Service struct {
	fetcher   post.Fetcher
	publisher Publisher
	config    Config
	logger    logging.Logger
	now       func() time.Time
}

// NewService creates a new analysis service. publisher may be nil.
func NewService(fetcher post.Fetcher, publisher Publisher, config Config, logger logging.Logger) *Service {
	if config.EventsTopic == "" {
		config.EventsTopic = "analysis.completed"
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	return &Service{
		fetcher:   fetcher,
		publisher: publisher,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze fetches details and subtitle concurrently and composes the report.
// A failed fetch degrades to an empty value and a warning.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	ref, err := post.ParseRef(req.PostRef)
	if err != nil {
		return nil, err
	}
	language := req.Language
	if language == "" {
		language = s.config.DefaultLanguage
	}

	fetchCtx := ctx
	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	var (
		details    *post.Details
		subtitle   *post.Subtitle
		detailsErr error
		subErr     error
	)

	// errors are kept per fetch so one failure does not cancel the other
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		details, detailsErr = s.fetcher.Details(gctx, ref)
		return nil
	})
	g.Go(func() error {
		subtitle, subErr = s.fetcher.Subtitle(gctx, ref, language)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var warnings []string
	if detailsErr != nil {
		s.logger.WithError(detailsErr).WithField("post", ref.String()).Warn("details fetch failed")
		warnings = append(warnings, fmt.Sprintf("details unavailable: %v", detailsErr))
		details = nil
	}
	if subErr != nil {
		if !errors.Is(subErr, post.ErrNotFound) {
			s.logger.WithError(subErr).WithField("post", ref.String()).Warn("subtitle fetch failed")
		}
		warnings = append(warnings, fmt.Sprintf("subtitle unavailable: %v", subErr))
		subtitle = nil
	}
	if details == nil && subtitle == nil {
		return nil, fmt.Errorf("%w: %s", ErrNothingToAnalyze, ref.String())
	}

	var d post.Details
	if details != nil {
		d = *details
	}
	var transcript string
	if subtitle != nil {
		transcript = subtitle.Text
		if subtitle.Language != "" {
			language = subtitle.Language
		}
	}

	report := virality.Analyze(d, transcript)
	result := &Result{
		ID:         uuid.New().String(),
		Ref:        ref.String(),
		VideoID:    firstNonEmpty(d.VideoID, ref.VideoID),
		Language:   language,
		Report:     report,
		Text:       virality.Render(report),
		Warnings:   warnings,
		Details:    details,
		AnalyzedAt: s.now().UTC(),
	}

	s.logger.WithFields(logging.Fields{
		"analysis_id":     result.ID,
		"video_id":        result.VideoID,
		"engagement_rate": report.Metrics.EngagementRate,
		"warnings":        len(warnings),
	}).Info("analysis completed")

	if err := s.publish(result); err != nil {
		s.logger.WithError(err).WithField("analysis_id", result.ID).Error("error publishing analysis event")
	}

	return result, nil
}

// Details returns the metadata of a post
func (s *Service) Details(ctx context.Context, rawRef string) (*post.Details, error) {
	ref, err := post.ParseRef(rawRef)
	if err != nil {
		return nil, err
	}
	return s.fetcher.Details(ctx, ref)
}

// Subtitle returns the transcript of a post
func (s *Service) Subtitle(ctx context.Context, rawRef, language string) (*post.Subtitle, error) {
	ref, err := post.ParseRef(rawRef)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = s.config.DefaultLanguage
	}
	return s.fetcher.Subtitle(ctx, ref, language)
}

// Search runs a keyword search
func (s *Service) Search(ctx context.Context, query post.SearchQuery) (*post.SearchResult, error) {
	return s.fetcher.Search(ctx, query)
}

// EventsTopic returns the subject analysis events are published on
func (s *Service) EventsTopic() string {
	return s.config.EventsTopic
}

func (s *Service) publish(r *Result) error {
	if s.publisher == nil {
		return nil
	}

	data, err := json.Marshal(Event{
		ID:              r.ID,
		Ref:             r.Ref,
		VideoID:         r.VideoID,
		Engagement:      r.Report.Metrics.Engagement,
		EngagementRate:  r.Report.Metrics.EngagementRate,
		Views:           r.Report.Metrics.Views,
		Recommendations: len(r.Report.Recommendations),
		Warnings:        r.Warnings,
		AnalyzedAt:      r.AnalyzedAt,
	})
	if err != nil {
		return fmt.Errorf("error marshaling analysis event: %w", err)
	}

	return s.publisher.Publish(s.config.EventsTopic, data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
