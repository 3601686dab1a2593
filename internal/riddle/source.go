package riddle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Default configuration for the riddle source
const (
	// DefaultURL is the API Ninjas riddles endpoint
	DefaultURL = "https://api.api-ninjas.com/v1/riddles"
	// DefaultTimeout bounds one fetch
	DefaultTimeout = 8 * time.Second
	// maxPayloadBytes caps how much of a response body is read
	maxPayloadBytes = 1 << 20
)

// Failure classes surfaced to the user with distinct messages.
var (
	ErrMissingAPIKey = errors.New("riddle API key is missing")
	ErrUnreachable   = errors.New("riddle service unreachable")
	ErrMalformed     = errors.New("riddle payload malformed or empty")
	ErrIncomplete    = errors.New("riddle payload missing question or answer")
)

// Riddle is one question/answer pair.
type Riddle struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Source fetches a single riddle.
type Source interface {
	FetchRiddle(ctx context.Context) (Riddle, error)
}

// Opts holds configuration for HTTPSource.
type Opts struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Option configures HTTPSource.
type Option func(*Opts)

// WithURL overrides the riddle endpoint.
func WithURL(url string) Option {
	return func(o *Opts) { o.URL = url }
}

// WithAPIKey sets the X-Api-Key header value.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// HTTPSource fetches riddles from an API Ninjas compatible endpoint.
type HTTPSource struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPSource creates a riddle source. A missing API key is reported on fetch, not here.
func NewHTTPSource(opts ...Option) *HTTPSource {
	cfg := Opts{URL: DefaultURL, Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	slog.Debug("NewHTTPSource created", "url", cfg.URL, "apiKeySet", cfg.APIKey != "", "timeout", cfg.Timeout)
	return &HTTPSource{url: cfg.URL, apiKey: cfg.APIKey, timeout: cfg.Timeout, client: cfg.HTTPClient}
}

// FetchRiddle requests one riddle and classifies any failure.
func (s *HTTPSource) FetchRiddle(ctx context.Context) (Riddle, error) {
	if s.apiKey == "" {
		return Riddle{}, ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Riddle{}, fmt.Errorf("%w: build request: %v", ErrUnreachable, err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Warn("HTTPSource.FetchRiddle: request failed", "error", err)
		return Riddle{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("HTTPSource.FetchRiddle: unexpected status", "status", resp.StatusCode)
		return Riddle{}, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return Riddle{}, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	r, err := ParsePayload(body)
	if err != nil {
		slog.Warn("HTTPSource.FetchRiddle: bad payload", "error", err, "bytes", len(body))
		return Riddle{}, err
	}
	slog.Debug("HTTPSource.FetchRiddle succeeded", "question_length", len(r.Question))
	return r, nil
}

// ParsePayload extracts the first riddle from a JSON array payload.
func ParsePayload(body []byte) (Riddle, error) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return Riddle{}, ErrMalformed
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return Riddle{}, fmt.Errorf("%w: expected a list", ErrMalformed)
	}
	items := root.Array()
	if len(items) == 0 {
		return Riddle{}, fmt.Errorf("%w: empty list", ErrMalformed)
	}
	first := items[0]
	r := Riddle{
		Question: strings.TrimSpace(first.Get("question").String()),
		Answer:   strings.TrimSpace(first.Get("answer").String()),
	}
	if !first.IsObject() || r.Question == "" || r.Answer == "" {
		return Riddle{}, ErrIncomplete
	}
	return r, nil
}
