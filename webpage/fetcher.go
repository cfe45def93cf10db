package webpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/corpix/uarand"
	"github.com/poiesic/hnstream/retry"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultWait is the base of the linear backoff between attempts.
	DefaultWait = time.Second

	// DefaultMaxBodyBytes caps how much of a page is read.
	DefaultMaxBodyBytes = 8 << 20
)

// Fetcher downloads webpages with browser-like headers.
// It is safe for concurrent use.
type Fetcher struct {
	httpClient   *http.Client
	maxRetries   int
	wait         time.Duration
	maxBodyBytes int64
	userAgent    func() string
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithWait sets the base wait; the n-th retry waits n times this value.
func WithWait(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.wait = d
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// WithMaxBodyBytes caps the number of bytes read from a response.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

// WithUserAgent replaces the random user agent source.
func WithUserAgent(fn func() string) Option {
	return func(f *Fetcher) {
		if fn != nil {
			f.userAgent = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a webpage fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:   DefaultMaxRetries,
		wait:         DefaultWait,
		maxBodyBytes: DefaultMaxBodyBytes,
		userAgent:    uarand.GetRandom,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "webpage-fetcher")
	return f
}

// Headers returns a synthetic browser header set with a random User-Agent.
func (f *Fetcher) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", f.userAgent())
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("Referrer", "https://www.google.com/")
	h.Set("DNT", "1")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// Fetch downloads url, retrying failures with a linearly increasing wait.
// Returns ErrUnavailable once every attempt has failed.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrNoURL
	}

	headers := f.Headers()
	attempts := f.maxRetries + 1

	var content []byte
	attempt := 0
	err := retry.Do(ctx, attempts, retry.Linear(f.wait), func() error {
		attempt++
		var err error
		content, err = f.get(ctx, url, headers)
		if err != nil {
			f.logger.Debug("request failed", "url", url, "attempt", attempt, "attempts", attempts, "err", err)
		}
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Warn("skipping url", "url", url, "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, url, err)
	}
	return content, nil
}

func (f *Fetcher) get(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		// A malformed URL will not improve on retry
		return nil, retry.Permanent(err)
	}
	req.Header = headers.Clone()

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
