package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/citydata"
	"github.com/citypulse/citypulse/internal/transport"
)

const (
	// DefaultSize is the result count requested when the caller does not
	// specify one.
	DefaultSize = 50

	// DefaultSuggestionSize is the autocomplete list length.
	DefaultSuggestionSize = 10
)

// Client groups the search endpoints.
type Client struct {
	http   *transport.Client
	logger zerolog.Logger
}

// NewClient creates a search facade on top of the transport client.
func NewClient(http *transport.Client, logger zerolog.Logger) *Client {
	return &Client{http: http, logger: logger}
}

// Global runs a cross-entity search and returns the three-bucket bundle.
func (c *Client) Global(ctx context.Context, q string, filters Filters, size int) (*Bundle, error) {
	values := filters.Values()
	if q != "" {
		values.Set("q", q)
	}
	setSize(values, size)

	raw, err := c.http.Get(ctx, transport.Path("search", "global"), values)
	if err != nil {
		return nil, fmt.Errorf("global search: %w", err)
	}

	var resp globalResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &citydata.Error{
			Op:      "search.global",
			Code:    "DECODE_FAILED",
			Message: "could not decode search results",
			Err:     citydata.ErrUpstream,
		}
	}
	return &resp.Results, nil
}

// Metrics searches metric documents only.
func (c *Client) Metrics(ctx context.Context, filters Filters, size int) ([]MetricHit, error) {
	values := filters.Values()
	setSize(values, size)

	raw, err := c.http.Get(ctx, transport.Path("search", "metrics"), values)
	if err != nil {
		return nil, fmt.Errorf("metrics search: %w", err)
	}

	var resp metricsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &citydata.Error{
			Op:      "search.metrics",
			Code:    "DECODE_FAILED",
			Message: "could not decode metric search results",
			Err:     citydata.ErrUpstream,
		}
	}
	return resp.Results, nil
}

// Alerts searches alert documents by message content and filters.
func (c *Client) Alerts(ctx context.Context, q string, filters Filters, size int) ([]AlertHit, error) {
	values := filters.Values()
	if q != "" {
		values.Set("q", q)
	}
	setSize(values, size)

	raw, err := c.http.Get(ctx, transport.Path("search", "alerts"), values)
	if err != nil {
		return nil, fmt.Errorf("alerts search: %w", err)
	}

	var resp alertsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &citydata.Error{
			Op:      "search.alerts",
			Code:    "DECODE_FAILED",
			Message: "could not decode alert search results",
			Err:     citydata.ErrUpstream,
		}
	}
	return resp.Results, nil
}

// Tab runs the search behind one result tab. The metrics and alerts tabs hit
// their dedicated endpoints; the predictions tab and the combined view go
// through the global search, since predictions have no endpoint of their own.
func (c *Client) Tab(ctx context.Context, tab, q string, filters Filters, size int) (*Bundle, error) {
	switch tab {
	case TabMetrics:
		hits, err := c.Metrics(ctx, filters, size)
		if err != nil {
			return nil, err
		}
		return &Bundle{Metrics: hits, Total: len(hits)}, nil
	case TabAlerts:
		hits, err := c.Alerts(ctx, q, filters, size)
		if err != nil {
			return nil, err
		}
		return &Bundle{Alerts: hits, Total: len(hits)}, nil
	case TabPredictions:
		bundle, err := c.Global(ctx, q, filters, size)
		if err != nil {
			return nil, err
		}
		return &Bundle{Predictions: bundle.Predictions, Total: len(bundle.Predictions)}, nil
	default:
		return c.Global(ctx, q, filters, size)
	}
}

// Suggestions fetches autocomplete suggestions. Suggestions are best-effort:
// any failure is logged and swallowed, and the caller always gets a usable
// (possibly empty) list. This is the one facade that never returns an error.
func (c *Client) Suggestions(ctx context.Context, q string, size int) []string {
	if size <= 0 {
		size = DefaultSuggestionSize
	}
	values := url.Values{}
	values.Set("q", q)
	values.Set("size", strconv.Itoa(size))

	raw, err := c.http.Get(ctx, transport.Path("search", "suggestions"), values)
	if err != nil {
		c.logger.Warn().Err(err).Str("query", q).Msg("suggestion fetch failed")
		return []string{}
	}

	var suggestions []string
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		c.logger.Warn().Err(err).Str("query", q).Msg("suggestion decode failed")
		return []string{}
	}
	if suggestions == nil {
		return []string{}
	}
	return suggestions
}

// Export runs a server-side export of the matching documents.
// Format is "json" or "csv".
func (c *Client) Export(ctx context.Context, q string, filters Filters, format string) (*ExportBundle, error) {
	if format == "" {
		format = "json"
	}
	values := filters.Values()
	if q != "" {
		values.Set("q", q)
	}
	values.Set("format", format)

	raw, err := c.http.Get(ctx, transport.Path("search", "export"), values)
	if err != nil {
		return nil, fmt.Errorf("search export: %w", err)
	}

	var bundle ExportBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, &citydata.Error{
			Op:      "search.export",
			Code:    "DECODE_FAILED",
			Message: "could not decode export bundle",
			Err:     citydata.ErrUpstream,
		}
	}
	return &bundle, nil
}

func setSize(values url.Values, size int) {
	if size <= 0 {
		size = DefaultSize
	}
	values.Set("size", strconv.Itoa(size))
}
