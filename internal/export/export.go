// Package export renders fetched snapshots and search results as CSV or
// JSON. Exports are generated locally from data already in memory and
// written to the given writer; nothing is stored.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/citypulse/citypulse/internal/citydata"
	"github.com/citypulse/citypulse/internal/search"
)

// SnapshotCSV writes the historical series of a snapshot as CSV: a
// time,traffic,aqi,energy header followed by one row per point.
func SnapshotCSV(w io.Writer, snap *citydata.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "traffic", "aqi", "energy"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, point := range snap.Historical {
		row := []string{
			point.Time,
			formatNumber(point.Traffic),
			formatNumber(point.AQI),
			formatNumber(point.Energy),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SnapshotJSON writes the full snapshot as indented JSON.
func SnapshotJSON(w io.Writer, snap *citydata.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// searchHeader is the flattened column set shared by all three buckets,
// mirroring the backend's export flattening.
var searchHeader = []string{
	"type", "city", "state", "traffic", "aqi", "energy",
	"category", "message", "severity", "timestamp",
}

// SearchCSV writes a result bundle as flattened CSV rows, metrics first,
// then alerts, then predictions.
func SearchCSV(w io.Writer, bundle *search.Bundle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(searchHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, m := range bundle.Metrics {
		row := []string{
			"metric", m.City, m.State,
			formatNumber(m.Traffic), formatNumber(m.AQI), formatNumber(m.Energy),
			"", "", "",
			formatTime(m.Timestamp),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing metric row: %w", err)
		}
	}
	for _, a := range bundle.Alerts {
		row := []string{
			"alert", a.City, a.State,
			"", "", "",
			a.Category, a.Message, string(a.Severity),
			formatTime(a.CreatedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing alert row: %w", err)
		}
	}
	for _, p := range bundle.Predictions {
		row := []string{
			"prediction", p.City, p.State,
			formatNumber(p.Traffic), formatNumber(p.AQI), formatNumber(p.Energy),
			"", p.Timeframe, "",
			formatTime(p.CreatedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing prediction row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SearchJSON writes a result bundle as indented JSON.
func SearchJSON(w io.Writer, bundle *search.Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}

// BundleCSV writes a server-side export bundle as CSV, one flattened row per
// record. Numeric columns absent from a record stay blank.
func BundleCSV(w io.Writer, bundle *search.ExportBundle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(searchHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range bundle.Records {
		row := []string{
			r.Type, r.City, r.State,
			formatOptional(r.Traffic), formatOptional(r.AQI), formatOptional(r.Energy),
			r.Category, r.Message, r.Severity,
			formatTime(r.Timestamp),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// BundleJSON writes the full export envelope as indented JSON.
func BundleJSON(w io.Writer, bundle *search.ExportBundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t citydata.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
