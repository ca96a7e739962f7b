// Package api provides the typed facades for the non-search backend
// endpoints: dashboard snapshots, the location directory, recent metrics,
// active alerts and the health probe.
package api

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

// DefaultMetricsLimit is the number of recent readings requested when the
// caller does not ask for a specific count.
const DefaultMetricsLimit = 24

// Client groups the dashboard-facing endpoints.
type Client struct {
	http   *transport.Client
	logger zerolog.Logger
}

// New creates an API facade on top of the transport client.
func New(http *transport.Client, logger zerolog.Logger) *Client {
	return &Client{http: http, logger: logger}
}

// Dashboard fetches the full snapshot for one city.
func (c *Client) Dashboard(ctx context.Context, state, city string) (*citydata.Snapshot, error) {
	raw, err := c.http.Get(ctx, transport.Path("dashboard", state, city), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching dashboard for %s/%s: %w", state, city, err)
	}

	var snap citydata.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &citydata.Error{
			Op:      "dashboard.fetch",
			Code:    "DECODE_FAILED",
			Message: "could not decode dashboard snapshot",
			Err:     citydata.ErrUpstream,
		}
	}
	return &snap, nil
}

// Locations fetches the state-to-cities directory.
func (c *Client) Locations(ctx context.Context) (citydata.Directory, error) {
	raw, err := c.http.Get(ctx, transport.Path("locations"), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching locations: %w", err)
	}

	var dir citydata.Directory
	if err := json.Unmarshal(raw, &dir); err != nil {
		return nil, &citydata.Error{
			Op:      "locations.fetch",
			Code:    "DECODE_FAILED",
			Message: "could not decode location directory",
			Err:     citydata.ErrUpstream,
		}
	}
	return dir, nil
}

// RecentMetrics fetches the most recent stored readings for a city.
// A non-positive limit falls back to DefaultMetricsLimit.
func (c *Client) RecentMetrics(ctx context.Context, state, city string, limit int) ([]citydata.MetricReading, error) {
	if limit <= 0 {
		limit = DefaultMetricsLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	raw, err := c.http.Get(ctx, transport.Path("metrics", state, city), query)
	if err != nil {
		return nil, fmt.Errorf("fetching metrics for %s/%s: %w", state, city, err)
	}

	var readings []citydata.MetricReading
	if err := json.Unmarshal(raw, &readings); err != nil {
		return nil, &citydata.Error{
			Op:      "metrics.fetch",
			Code:    "DECODE_FAILED",
			Message: "could not decode metric readings",
			Err:     citydata.ErrUpstream,
		}
	}
	return readings, nil
}

// ActiveAlerts fetches the currently active alerts for a city.
func (c *Client) ActiveAlerts(ctx context.Context, state, city string) ([]citydata.Alert, error) {
	raw, err := c.http.Get(ctx, transport.Path("alerts", state, city), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching alerts for %s/%s: %w", state, city, err)
	}

	var alerts []citydata.Alert
	if err := json.Unmarshal(raw, &alerts); err != nil {
		return nil, &citydata.Error{
			Op:      "alerts.fetch",
			Code:    "DECODE_FAILED",
			Message: "could not decode alerts",
			Err:     citydata.ErrUpstream,
		}
	}
	return alerts, nil
}

// Health probes the API root and returns the backend's self-description.
func (c *Client) Health(ctx context.Context) (citydata.HealthStatus, error) {
	raw, err := c.http.Get(ctx, transport.Path(), nil)
	if err != nil {
		return citydata.HealthStatus{}, fmt.Errorf("health probe: %w", err)
	}

	var status citydata.HealthStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return citydata.HealthStatus{}, &citydata.Error{
			Op:      "health.probe",
			Code:    "DECODE_FAILED",
			Message: "could not decode health response",
			Err:     citydata.ErrUpstream,
		}
	}
	return status, nil
}
