// Package search provides the facades for the search endpoints, the filter
// set and its query serialization, and the debounced suggestion pipeline.
package search

import (
	"github.com/citypulse/citypulse/internal/citydata"
)

// Tab names for slicing a result bundle.
const (
	TabAll         = "all"
	TabMetrics     = "metrics"
	TabAlerts      = "alerts"
	TabPredictions = "predictions"
)

// MetricHit is one metric document in a result bundle, carrying its
// relevance score.
type MetricHit struct {
	ID        string        `json:"id"`
	City      string        `json:"city"`
	State     string        `json:"state"`
	Traffic   float64       `json:"traffic_percentage"`
	AQI       float64       `json:"aqi_value"`
	Energy    float64       `json:"energy_percentage"`
	Timestamp citydata.Time `json:"timestamp"`
	Source    string        `json:"source"`
	Score     float64       `json:"score"`
}

// AlertHit is one alert document in a result bundle.
type AlertHit struct {
	ID        string            `json:"id"`
	City      string            `json:"city"`
	State     string            `json:"state"`
	Type      string            `json:"alert_type"`
	Category  string            `json:"category"`
	Message   string            `json:"message"`
	Severity  citydata.Severity `json:"severity"`
	Active    bool              `json:"is_active"`
	CreatedAt citydata.Time     `json:"created_at"`
	Score     float64           `json:"score"`
}

// PredictionHit is one prediction document in a result bundle.
type PredictionHit struct {
	ID         string        `json:"id"`
	City       string        `json:"city"`
	State      string        `json:"state"`
	Timeframe  string        `json:"timeframe"`
	Traffic    float64       `json:"predicted_traffic"`
	AQI        float64       `json:"predicted_aqi"`
	Energy     float64       `json:"predicted_energy"`
	Confidence float64       `json:"confidence_score"`
	CreatedAt  citydata.Time `json:"created_at"`
	Score      float64       `json:"score"`
}

// Bundle holds the three independently sized result buckets plus the total
// hit count across them.
type Bundle struct {
	Metrics     []MetricHit     `json:"metrics"`
	Alerts      []AlertHit      `json:"alerts"`
	Predictions []PredictionHit `json:"predictions"`
	Total       int             `json:"total"`
}

// Empty reports whether the bundle has no hits at all.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.Metrics)+len(b.Alerts)+len(b.Predictions) == 0
}

// globalResponse is the envelope of /search/global.
type globalResponse struct {
	Query     string `json:"query"`
	Results   Bundle `json:"results"`
	Timestamp string `json:"timestamp"`
}

// metricsResponse is the envelope of /search/metrics.
type metricsResponse struct {
	Results []MetricHit `json:"results"`
	Count   int         `json:"count"`
}

// alertsResponse is the envelope of /search/alerts.
type alertsResponse struct {
	Query   string     `json:"query"`
	Results []AlertHit `json:"results"`
	Count   int        `json:"count"`
}

// ExportRecord is one flattened row of a server-side export.
type ExportRecord struct {
	Type      string        `json:"type"`
	City      string        `json:"city"`
	State     string        `json:"state"`
	Traffic   *float64      `json:"traffic_percentage,omitempty"`
	AQI       *float64      `json:"aqi_value,omitempty"`
	Energy    *float64      `json:"energy_percentage,omitempty"`
	AlertType string        `json:"alert_type,omitempty"`
	Category  string        `json:"category,omitempty"`
	Message   string        `json:"message,omitempty"`
	Severity  string        `json:"severity,omitempty"`
	Timestamp citydata.Time `json:"timestamp"`
	Source    string        `json:"source,omitempty"`
}

// ExportBundle is the envelope of /search/export.
type ExportBundle struct {
	Records     []ExportRecord `json:"export_data"`
	Total       int            `json:"total_records"`
	Query       string         `json:"query"`
	Format      string         `json:"format"`
	GeneratedAt string         `json:"generated_at"`
}
