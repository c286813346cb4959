// internal/adapter/tiktok/client.go

package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/go-resty/resty/v2"

	"tokscope/internal/domain/post"
	"tokscope/internal/service/virality"
	"tokscope/pkg/logging"
)

// Backend endpoints
const (
	detailsPath  = "/api/v1/post/details"
	subtitlePath = "/api/v1/post/subtitle"
	searchPath   = "/api/v1/search"
)

const (
	defaultSearchCount = 10
	maxSearchCount     = 50
)

// APIError is returned when the backend answers with an error status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Config contains configuration for the backend client
type Config struct {
	BaseURL        string
	APIKey         string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// Client implements post.Fetcher against the scraping backend
type Client struct {
	http     *resty.Client
	executor failsafe.Executor[*resty.Response]
	logger   logging.Logger
}

// NewClient creates a new backend client
func NewClient(cfg Config, logger logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tokscope/1.0"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 200 * time.Millisecond
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = cfg.RetryBaseDelay
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http:     httpClient,
		executor: newExecutor(cfg, logger),
		logger:   logger,
	}
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}
	switch resp.StatusCode() {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

func newExecutor(cfg Config, logger logging.Logger) failsafe.Executor[*resty.Response] {
	retry := retrypolicy.NewBuilder[*resty.Response]().
		HandleIf(shouldRetry).
		WithBackoff(cfg.RetryBaseDelay, cfg.RetryMaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		Build()

	breaker := circuitbreaker.NewBuilder[*resty.Response]().
		HandleIf(func(resp *resty.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode() >= 500)
		}).
		WithFailureThresholdRatio(5, 10).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			if logger != nil {
				logger.WithFields(logging.Fields{
					"from_state": stateName(event.OldState),
					"to_state":   stateName(event.NewState),
				}).Warn("backend circuit breaker state change")
			}
		}).
		Build()

	return failsafe.With(retry, breaker)
}

func stateName(state circuitbreaker.State) string {
	switch state {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	case circuitbreaker.OpenState:
		return "open"
	default:
		return "unknown"
	}
}

// get runs a GET through the retry executor and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	var last *resty.Response
	_, err := c.executor.WithContext(ctx).Get(func() (*resty.Response, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		last = resp
		return resp, err
	})

	if last != nil && last.StatusCode() == http.StatusNotFound {
		return post.ErrNotFound
	}
	if last != nil && last.IsError() {
		return &APIError{StatusCode: last.StatusCode(), Message: errorMessage(last.Body())}
	}
	if err != nil {
		return fmt.Errorf("backend request %s: %w", path, err)
	}

	if err := json.Unmarshal(last.Body(), out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", path, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func refParams(ref post.Ref) map[string]string {
	params := map[string]string{}
	if ref.URL != "" {
		params["url"] = ref.URL
	}
	if ref.VideoID != "" {
		params["video_id"] = ref.VideoID
	}
	return params
}

type authorPayload struct {
	UniqueID string `json:"unique_id"`
	Nickname string `json:"nickname"`
}

func (a authorPayload) handle() string {
	if a.UniqueID != "" {
		return "@" + strings.TrimPrefix(a.UniqueID, "@")
	}
	return a.Nickname
}

// counters may arrive as JSON numbers or as formatted strings
type statsPayload struct {
	Likes     any `json:"likes"`
	Shares    any `json:"shares"`
	Comments  any `json:"comments"`
	Views     any `json:"views"`
	Bookmarks any `json:"bookmarks"`
}

type detailsPayload struct {
	VideoID     string        `json:"video_id"`
	URL         string        `json:"url"`
	Description string        `json:"description"`
	Author      authorPayload `json:"author"`
	Hashtags    []string      `json:"hashtags"`
	Stats       statsPayload  `json:"stats"`
	Duration    any           `json:"duration"`
	CreateTime  int64         `json:"create_time"`
	Subtitles   []struct {
		Language string `json:"language"`
	} `json:"subtitles"`
}

// Details fetches the metadata of a post
func (c *Client) Details(ctx context.Context, ref post.Ref) (*post.Details, error) {
	var payload detailsPayload
	if err := c.get(ctx, detailsPath, refParams(ref), &payload); err != nil {
		return nil, err
	}

	d := &post.Details{
		VideoID:         payload.VideoID,
		URL:             payload.URL,
		Description:     payload.Description,
		Author:          payload.Author.handle(),
		Likes:           virality.ParseNumber(payload.Stats.Likes),
		Shares:          virality.ParseNumber(payload.Stats.Shares),
		Comments:        virality.ParseNumber(payload.Stats.Comments),
		Views:           virality.ParseNumber(payload.Stats.Views),
		Bookmarks:       virality.ParseNumber(payload.Stats.Bookmarks),
		DurationSeconds: virality.ParseNumber(payload.Duration),
	}
	if d.VideoID == "" {
		d.VideoID = ref.VideoID
	}
	if d.URL == "" {
		d.URL = ref.URL
	}
	for _, tag := range payload.Hashtags {
		if tag = strings.TrimSpace(tag); tag != "" {
			d.Hashtags = append(d.Hashtags, "#"+strings.TrimPrefix(tag, "#"))
		}
	}
	if payload.CreateTime > 0 {
		d.CreatedAt = time.Unix(payload.CreateTime, 0).UTC()
	}
	for _, s := range payload.Subtitles {
		if s.Language != "" {
			d.SubtitleLanguages = append(d.SubtitleLanguages, s.Language)
		}
	}

	return d, nil
}

// Subtitle fetches the transcript of a post; an empty language lets the backend pick
func (c *Client) Subtitle(ctx context.Context, ref post.Ref, language string) (*post.Subtitle, error) {
	params := refParams(ref)
	if language != "" {
		params["language"] = language
	}

	var payload struct {
		VideoID  string `json:"video_id"`
		Language string `json:"language"`
		Text     string `json:"text"`
	}
	if err := c.get(ctx, subtitlePath, params, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.Text) == "" {
		return nil, post.ErrNotFound
	}

	s := &post.Subtitle{
		VideoID:  payload.VideoID,
		Language: payload.Language,
		Text:     payload.Text,
	}
	if s.VideoID == "" {
		s.VideoID = ref.VideoID
	}
	return s, nil
}

// Search runs a keyword search
func (c *Client) Search(ctx context.Context, query post.SearchQuery) (*post.SearchResult, error) {
	keywords := strings.TrimSpace(query.Keywords)
	if keywords == "" {
		return nil, fmt.Errorf("keywords are required")
	}
	count := query.Count
	if count <= 0 {
		count = defaultSearchCount
	}
	if count > maxSearchCount {
		count = maxSearchCount
	}
	cursor := query.Cursor
	if cursor < 0 {
		cursor = 0
	}

	params := map[string]string{
		"keywords": keywords,
		"count":    strconv.Itoa(count),
		"cursor":   strconv.Itoa(cursor),
	}

	var payload struct {
		Items []struct {
			VideoID     string        `json:"video_id"`
			URL         string        `json:"url"`
			Description string        `json:"description"`
			Author      authorPayload `json:"author"`
			Stats       statsPayload  `json:"stats"`
		} `json:"items"`
		Cursor  any  `json:"cursor"`
		HasMore bool `json:"has_more"`
	}
	if err := c.get(ctx, searchPath, params, &payload); err != nil {
		return nil, err
	}

	result := &post.SearchResult{
		Query:   keywords,
		Items:   make([]post.Summary, 0, len(payload.Items)),
		Cursor:  int(virality.ParseNumber(payload.Cursor)),
		HasMore: payload.HasMore,
	}
	for _, item := range payload.Items {
		result.Items = append(result.Items, post.Summary{
			VideoID:     item.VideoID,
			URL:         item.URL,
			Description: item.Description,
			Author:      item.Author.handle(),
			Likes:       virality.ParseNumber(item.Stats.Likes),
			Views:       virality.ParseNumber(item.Stats.Views),
		})
	}

	return result, nil
}
