// Package citydata defines the data types exchanged with the Smart City
// Dashboard backend. Every type here is a transit DTO: it is decoded from a
// backend response, owned by whichever component fetched it, and replaced
// wholesale on the next fetch.
package citydata

import (
	"sort"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	// SeverityLow marks informational alerts.
	SeverityLow Severity = "low"
	// SeverityMedium marks alerts that warrant attention.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks alerts that need immediate attention.
	SeverityHigh Severity = "high"
)

// Directory maps a state name to the ordered list of cities the backend
// knows about in that state.
type Directory map[string][]string

// States returns the state names in sorted order.
func (d Directory) States() []string {
	states := make([]string, 0, len(d))
	for s := range d {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// Cities returns the cities of a state in backend order, or nil for an
// unknown state.
func (d Directory) Cities(state string) []string {
	return d[state]
}

// Contains reports whether the directory lists the given city under the
// given state.
func (d Directory) Contains(state, city string) bool {
	for _, c := range d[state] {
		if c == city {
			return true
		}
	}
	return false
}

// RealTime holds the current metric readings for a city. Values are
// percentages for traffic and energy, and the raw AQI value.
type RealTime struct {
	Traffic   float64 `json:"traffic"`
	AQI       float64 `json:"aqi"`
	Energy    float64 `json:"energy"`
	Timestamp string  `json:"timestamp"`
}

// PredictedMetrics holds forecast metric values for one horizon.
type PredictedMetrics struct {
	Traffic float64 `json:"traffic"`
	AQI     float64 `json:"aqi"`
	Energy  float64 `json:"energy"`
}

// Predictions holds the short-horizon forecasts served with a snapshot.
type Predictions struct {
	OneHour  PredictedMetrics `json:"oneHour"`
	SixHours PredictedMetrics `json:"sixHours"`
}

// HistoricalPoint is one entry of the hourly time series in a snapshot.
type HistoricalPoint struct {
	Time    string  `json:"time"`
	Traffic float64 `json:"traffic"`
	AQI     float64 `json:"aqi"`
	Energy  float64 `json:"energy"`
}

// AlertSummary is the condensed alert shape embedded in a snapshot.
// Timestamp is a wall-clock string (HH:MM:SS), not a full date.
type AlertSummary struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Category  string   `json:"category"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Timestamp string   `json:"timestamp"`
}

// Snapshot is the full dashboard payload for one city: live readings,
// 1h/6h predictions, 24h of historical points and the active alerts.
// A snapshot is always replaced as a unit, never patched.
type Snapshot struct {
	RealTime    RealTime          `json:"realTime"`
	Predictions Predictions       `json:"predictions"`
	Historical  []HistoricalPoint `json:"historical"`
	Alerts      []AlertSummary    `json:"alerts"`
}

// MetricReading is a single stored metric document as returned by the
// recent-metrics endpoint.
type MetricReading struct {
	ID        string  `json:"id"`
	State     string  `json:"state"`
	City      string  `json:"city"`
	Traffic   float64 `json:"traffic_percentage"`
	AQI       float64 `json:"aqi_value"`
	Energy    float64 `json:"energy_percentage"`
	Timestamp Time    `json:"timestamp"`
	Source    string  `json:"source"`
}

// Alert is a full alert record as returned by the active-alerts endpoint.
type Alert struct {
	ID         string   `json:"id"`
	State      string   `json:"state"`
	City       string   `json:"city"`
	Type       string   `json:"alert_type"`
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Active     bool     `json:"is_active"`
	CreatedAt  Time     `json:"created_at"`
	ResolvedAt *Time    `json:"resolved_at,omitempty"`
}

// HealthStatus is the body of the root health probe.
type HealthStatus struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
