// Package marketdata fetches ranked market listings and yield opportunities
// from CoinGecko, Portals and THORChain.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"markets-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	// DefaultMaxBodyBytes caps an upstream response body.
	DefaultMaxBodyBytes int64 = 16 << 20
)

// ErrRateLimited is returned when an upstream keeps answering 429.
var ErrRateLimited = errors.New("rate limited")

// ErrResponseTooLarge is returned when a body exceeds the size cap.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError is a non-retryable upstream HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Option configures a provider client.
type Option func(*transport)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *transport) {
		t.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(t *transport) {
		t.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(t *transport) {
		t.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(t *transport) {
		t.maxDelay = d
	}
}

// WithMaxBodyBytes caps the response body size.
func WithMaxBodyBytes(n int64) Option {
	return func(t *transport) {
		t.maxBodyBytes = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *transport) {
		t.client = client
	}
}

// WithHeader adds a header to every request, e.g. an API key.
func WithHeader(key, value string) Option {
	return func(t *transport) {
		t.headers.Set(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// transport is the GET-JSON client shared by every provider.
type transport struct {
	provider    string
	baseURL     string
	client      *http.Client
	headers     http.Header
	logger      *zap.Logger
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64

	maxBodyBytes int64
}

func newTransport(provider, baseURL string, opts []Option) *transport {
	t := &transport{
		provider:    provider,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		headers:     http.Header{},
		logger:      zap.NewNop(),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,

		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named(provider)
	return t
}

// getJSON performs a GET with retries and exponential backoff and decodes
// the body into out. endpoint labels metrics.
// 429 and 5xx are retried; other non-200 statuses fail immediately.
func (t *transport) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	start := time.Now()
	err := t.do(ctx, path, query, out)
	observability.RecordFetch(t.provider, endpoint, time.Since(start).Seconds(), err)
	if err != nil {
		t.logger.Warn("fetch failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
	return err
}

func (t *transport) do(ctx context.Context, path string, query url.Values, out any) error {
	target := t.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	delay := t.retryDelay
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * t.backoffMult)
			if delay > t.maxDelay {
				delay = t.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range t.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes+1))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}
		if int64(len(body)) > t.maxBodyBytes {
			return fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, t.maxBodyBytes)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w (429)", ErrRateLimited)
			continue
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 256)}
			continue
		case resp.StatusCode != http.StatusOK:
			return &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 256)}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// flexFloat decodes a JSON number or a numeric string. Empty strings and
// null decode to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}
