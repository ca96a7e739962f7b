package search

import (
	"net/url"
	"strconv"
	"strings"
)

// Filters is the optional filter set shared by every search-style endpoint.
// The zero value means "no filters". Absent fields are omitted from the
// outgoing query entirely; they are never sent as empty markers.
type Filters struct {
	Cities []string
	States []string

	// DateFrom and DateTo bound the document date range, YYYY-MM-DD.
	DateFrom string
	DateTo   string

	TrafficMin *float64
	TrafficMax *float64
	AQIMin     *float64
	AQIMax     *float64
	EnergyMin  *float64
	EnergyMax  *float64

	Severities []string
	Categories []string
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return len(f.Cities) == 0 &&
		len(f.States) == 0 &&
		f.DateFrom == "" &&
		f.DateTo == "" &&
		f.TrafficMin == nil &&
		f.TrafficMax == nil &&
		f.AQIMin == nil &&
		f.AQIMax == nil &&
		f.EnergyMin == nil &&
		f.EnergyMax == nil &&
		len(f.Severities) == 0 &&
		len(f.Categories) == 0
}

// Values serializes the filter set into query parameters. List-valued
// filters become comma-joined tokens in insertion order; numeric bounds are
// passed through unformatted.
func (f Filters) Values() url.Values {
	values := url.Values{}

	setList(values, "cities", f.Cities)
	setList(values, "states", f.States)
	if f.DateFrom != "" {
		values.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		values.Set("date_to", f.DateTo)
	}
	setBound(values, "traffic_min", f.TrafficMin)
	setBound(values, "traffic_max", f.TrafficMax)
	setBound(values, "aqi_min", f.AQIMin)
	setBound(values, "aqi_max", f.AQIMax)
	setBound(values, "energy_min", f.EnergyMin)
	setBound(values, "energy_max", f.EnergyMax)
	setList(values, "severities", f.Severities)
	setList(values, "categories", f.Categories)

	return values
}

func setList(values url.Values, key string, list []string) {
	if len(list) == 0 {
		return
	}
	values.Set(key, strings.Join(list, ","))
}

func setBound(values url.Values, key string, bound *float64) {
	if bound == nil {
		return
	}
	values.Set(key, strconv.FormatFloat(*bound, 'f', -1, 64))
}

// Bound is a convenience for building pointer-valued numeric bounds.
func Bound(v float64) *float64 {
	return &v
}
