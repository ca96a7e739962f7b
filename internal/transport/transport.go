// Package transport provides the single HTTP wrapper every backend call goes
// through. It applies the base URL, the fixed request timeout, default JSON
// headers and per-request logging, and normalizes failures into
// citydata.Error values. It never retries and never caches.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/citypulse/citypulse/internal/citydata"
	"github.com/citypulse/citypulse/internal/telemetry"
)

const (
	// DefaultTimeout is the fixed per-request timeout. There is no
	// per-call override.
	DefaultTimeout = 30 * time.Second

	// apiPrefix is prepended to every path; the backend mounts all routes
	// under it.
	apiPrefix = "/api"

	instrumentationName = "citypulse.transport"
)

// Doer executes HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the transport client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8001" (required).
	BaseURL string

	// Timeout is the request timeout (optional, defaults to 30s).
	// Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (optional).
	HTTPClient Doer

	// RateLimit caps outgoing requests per second (optional, 0 disables).
	RateLimit rate.Limit

	// RateBurst is the limiter burst size (optional, defaults to 1).
	RateBurst int

	// Logger for request/response logging.
	Logger zerolog.Logger
}

// Client is the configured HTTP wrapper.
type Client struct {
	baseURL    string
	httpClient Doer
	limiter    *rate.Limiter
	logger     zerolog.Logger

	tracer   trace.Tracer
	requests metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// New creates a transport client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}

	meter := telemetry.Meter(instrumentationName)
	requests, _ := meter.Int64Counter("citypulse.client.requests")
	failures, _ := meter.Int64Counter("citypulse.client.failures")
	latency, _ := meter.Float64Histogram("citypulse.client.request.duration",
		metric.WithUnit("ms"))

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     cfg.Logger,
		tracer:     telemetry.Tracer(instrumentationName),
		requests:   requests,
		failures:   failures,
		latency:    latency,
	}
}

// Path joins segments into an API path, percent-encoding each one. State and
// city names contain spaces, so callers must never concatenate them raw.
func Path(segments ...string) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// Get performs a GET against the backend and returns the raw JSON body.
// The path must already be encoded (use Path); query may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &citydata.Error{
				Code:    "CANCELED",
				Message: "request canceled while rate limited",
				Err:     citydata.ErrBackendUnavailable,
			}
		}
	}

	target := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "GET "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.path", apiPrefix+path),
		))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	c.logger.Debug().
		Str("method", http.MethodGet).
		Str("path", path).
		Msg("sending request")

	start := time.Now()
	c.requests.Add(ctx, 1)

	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	c.latency.Record(ctx, float64(elapsed.Milliseconds()))

	if err != nil {
		c.failures.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.logger.Warn().
			Err(err).
			Str("path", path).
			Dur("duration", elapsed).
			Msg("request failed")
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("path", path).
		Dur("duration", elapsed).
		Msg("received response")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.failures.Add(ctx, 1)
		return nil, &citydata.Error{
			Code:    "READ_FAILED",
			Message: "failed to read backend response",
			Err:     citydata.ErrUpstream,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.failures.Add(ctx, 1)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, statusError(resp.StatusCode, body)
	}

	return json.RawMessage(body), nil
}

// transportError maps a network-level failure to a normalized error.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &citydata.Error{
			Code:    "TIMEOUT",
			Message: "request timed out",
			Err:     citydata.ErrBackendUnavailable,
		}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &citydata.Error{
			Code:    "TIMEOUT",
			Message: "request timed out",
			Err:     citydata.ErrBackendUnavailable,
		}
	}
	return &citydata.Error{
		Code:    "REQUEST_FAILED",
		Message: "failed to reach backend",
		Err:     citydata.ErrBackendUnavailable,
	}
}

// statusError maps a non-2xx response to a normalized error, preserving the
// status code and the server-supplied detail string when present.
func statusError(statusCode int, body []byte) error {
	message := fmt.Sprintf("backend returned status %d", statusCode)

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		message = detail.Detail
	}

	sentinel := citydata.ErrUpstream
	switch {
	case statusCode == http.StatusNotFound:
		sentinel = citydata.ErrNotFound
	case statusCode == http.StatusTooManyRequests:
		sentinel = citydata.ErrRateLimited
	case statusCode >= 500:
		sentinel = citydata.ErrBackendUnavailable
	}

	return &citydata.Error{
		Code:    fmt.Sprintf("HTTP_%d", statusCode),
		Message: message,
		Err:     sentinel,
	}
}
