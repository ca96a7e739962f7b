// Package view renders dashboard state and search results to a terminal.
// It is purely presentational: formatting, severity markers and placeholder
// states, no fetching and no business logic.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/citypulse/citypulse/internal/citydata"
	"github.com/citypulse/citypulse/internal/dashboard"
	"github.com/citypulse/citypulse/internal/search"
)

// Bucket caps on the "all" tab. Overflow is signalled with a hint pointing
// at the dedicated tab.
const (
	allTabMetricsCap     = 3
	allTabAlertsCap      = 3
	allTabPredictionsCap = 2
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// RenderDashboard writes the dashboard for the given view: metric cards,
// predictions, the historical chart and the alerts list, with placeholder
// output for the loading, error and offline states.
func RenderDashboard(w io.Writer, v dashboard.View) {
	fmt.Fprintf(w, "== %s, %s ==\n", v.City, v.State)
	if !v.Online {
		fmt.Fprintln(w, "[offline] showing last known data")
	}
	if v.Stale {
		fmt.Fprintln(w, "[stale] data may be out of date")
	}
	if v.Err != nil {
		fmt.Fprintf(w, "error: %v (press r to retry)\n", v.Err)
	}
	if v.Snapshot == nil {
		if v.Loading {
			fmt.Fprintln(w, "loading…")
		} else if v.Err == nil {
			fmt.Fprintln(w, "no data")
		}
		return
	}
	if v.Loading {
		fmt.Fprintln(w, "refreshing…")
	}

	snap := v.Snapshot
	renderCards(w, snap.RealTime)
	renderPredictions(w, snap.Predictions)
	renderHistory(w, snap.Historical)
	renderAlerts(w, snap.Alerts)
}

func renderCards(w io.Writer, rt citydata.RealTime) {
	fmt.Fprintf(w, "traffic %5.0f%%  %s\n", rt.Traffic, trafficStatus(rt.Traffic))
	fmt.Fprintf(w, "aqi     %5.0f   %s\n", rt.AQI, aqiStatus(rt.AQI))
	fmt.Fprintf(w, "energy  %5.0f%%  %s\n", rt.Energy, energyStatus(rt.Energy))
}

func renderPredictions(w io.Writer, p citydata.Predictions) {
	fmt.Fprintf(w, "in 1h : traffic %.0f%%, aqi %.0f, energy %.0f%%\n",
		p.OneHour.Traffic, p.OneHour.AQI, p.OneHour.Energy)
	fmt.Fprintf(w, "in 6h : traffic %.0f%%, aqi %.0f, energy %.0f%%\n",
		p.SixHours.Traffic, p.SixHours.AQI, p.SixHours.Energy)
}

func renderHistory(w io.Writer, points []citydata.HistoricalPoint) {
	if len(points) == 0 {
		return
	}
	traffic := make([]float64, len(points))
	aqi := make([]float64, len(points))
	energy := make([]float64, len(points))
	for i, p := range points {
		traffic[i] = p.Traffic
		aqi[i] = p.AQI
		energy[i] = p.Energy
	}
	fmt.Fprintf(w, "24h traffic %s\n", Sparkline(traffic))
	fmt.Fprintf(w, "24h aqi     %s\n", Sparkline(aqi))
	fmt.Fprintf(w, "24h energy  %s\n", Sparkline(energy))
}

func renderAlerts(w io.Writer, alerts []citydata.AlertSummary) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "no active alerts")
		return
	}
	fmt.Fprintf(w, "alerts (%d):\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(w, "  %s %s [%s] %s\n",
			SeverityMarker(a.Severity), a.Timestamp, a.Category, a.Message)
	}
}

// RenderResults writes a result bundle for the given tab. The "all" tab
// shows a capped slice of each bucket with an overflow hint; the dedicated
// tabs show their bucket in full.
func RenderResults(w io.Writer, bundle *search.Bundle, tab string) {
	if bundle == nil {
		fmt.Fprintln(w, "no search performed")
		return
	}
	if bundle.Empty() {
		fmt.Fprintln(w, "no results")
		return
	}

	switch tab {
	case search.TabMetrics:
		renderMetricHits(w, bundle.Metrics, len(bundle.Metrics))
	case search.TabAlerts:
		renderAlertHits(w, bundle.Alerts, len(bundle.Alerts))
	case search.TabPredictions:
		renderPredictionHits(w, bundle.Predictions, len(bundle.Predictions))
	default:
		fmt.Fprintf(w, "%d results\n", bundle.Total)
		renderMetricHits(w, bundle.Metrics, allTabMetricsCap)
		renderAlertHits(w, bundle.Alerts, allTabAlertsCap)
		renderPredictionHits(w, bundle.Predictions, allTabPredictionsCap)
	}
}

func renderMetricHits(w io.Writer, hits []search.MetricHit, limit int) {
	if len(hits) == 0 {
		return
	}
	fmt.Fprintf(w, "metrics (%d):\n", len(hits))
	for i, h := range hits {
		if i >= limit {
			fmt.Fprintf(w, "  … %d more (tab: metrics)\n", len(hits)-limit)
			return
		}
		fmt.Fprintf(w, "  %s, %s  traffic %.1f%%  aqi %.0f  energy %.1f%%  (%.2f)\n",
			h.City, h.State, h.Traffic, h.AQI, h.Energy, h.Score)
	}
}

func renderAlertHits(w io.Writer, hits []search.AlertHit, limit int) {
	if len(hits) == 0 {
		return
	}
	fmt.Fprintf(w, "alerts (%d):\n", len(hits))
	for i, h := range hits {
		if i >= limit {
			fmt.Fprintf(w, "  … %d more (tab: alerts)\n", len(hits)-limit)
			return
		}
		fmt.Fprintf(w, "  %s %s, %s [%s] %s  (%.2f)\n",
			SeverityMarker(h.Severity), h.City, h.State, h.Category, h.Message, h.Score)
	}
}

func renderPredictionHits(w io.Writer, hits []search.PredictionHit, limit int) {
	if len(hits) == 0 {
		return
	}
	fmt.Fprintf(w, "predictions (%d):\n", len(hits))
	for i, h := range hits {
		if i >= limit {
			fmt.Fprintf(w, "  … %d more (tab: predictions)\n", len(hits)-limit)
			return
		}
		fmt.Fprintf(w, "  %s, %s (%s)  traffic %.1f%%  aqi %.0f  energy %.1f%%  conf %.0f%%\n",
			h.City, h.State, h.Timeframe, h.Traffic, h.AQI, h.Energy, h.Confidence*100)
	}
}

// Sparkline renders values as a row of block characters scaled to the
// series min/max.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - min) / span * float64(len(sparkLevels)-1))
		}
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

// SeverityMarker maps an alert severity to its display marker.
func SeverityMarker(s citydata.Severity) string {
	switch s {
	case citydata.SeverityHigh:
		return "[!!]"
	case citydata.SeverityMedium:
		return "[! ]"
	default:
		return "[  ]"
	}
}
