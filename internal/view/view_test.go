package view

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/citypulse/internal/citydata"
	"github.com/citypulse/citypulse/internal/dashboard"
	"github.com/citypulse/citypulse/internal/search"
)

func sampleBundle(metrics, alerts, predictions int) *search.Bundle {
	b := &search.Bundle{}
	for i := 0; i < metrics; i++ {
		b.Metrics = append(b.Metrics, search.MetricHit{
			City: fmt.Sprintf("City%d", i), State: "Maharashtra", Traffic: 50, AQI: 100, Energy: 60,
		})
	}
	for i := 0; i < alerts; i++ {
		b.Alerts = append(b.Alerts, search.AlertHit{
			City: "Mumbai", State: "Maharashtra", Category: "traffic",
			Message: fmt.Sprintf("alert %d", i), Severity: citydata.SeverityHigh,
		})
	}
	for i := 0; i < predictions; i++ {
		b.Predictions = append(b.Predictions, search.PredictionHit{
			City: "Pune", State: "Maharashtra", Timeframe: "1h",
		})
	}
	b.Total = metrics + alerts + predictions
	return b
}

func TestRenderResults_AllTabCapsBuckets(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, sampleBundle(5, 6, 4), search.TabAll)
	out := buf.String()

	assert.Contains(t, out, "15 results")
	assert.Equal(t, 3, strings.Count(out, "traffic 50.0%"), "the all tab shows at most three metric hits")
	assert.Equal(t, 3, strings.Count(out, "[!!] Mumbai"), "the all tab shows at most three alert hits")
	assert.Equal(t, 2, strings.Count(out, "Pune, Maharashtra (1h)"), "the all tab shows at most two prediction hits")

	assert.Contains(t, out, "… 2 more (tab: metrics)")
	assert.Contains(t, out, "… 3 more (tab: alerts)")
	assert.Contains(t, out, "… 2 more (tab: predictions)")
}

func TestRenderResults_AllTabNoHintWithinCaps(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, sampleBundle(3, 2, 2), search.TabAll)

	assert.NotContains(t, buf.String(), "more (tab:")
}

func TestRenderResults_DedicatedTabsAreUncapped(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, sampleBundle(7, 5, 0), search.TabMetrics)
	out := buf.String()

	assert.Equal(t, 7, strings.Count(out, "traffic 50.0%"), "the metrics tab shows every metric hit")
	assert.NotContains(t, out, "more (tab:")
	assert.NotContains(t, out, "Mumbai", "the metrics tab shows no alerts")
}

func TestRenderResults_EmptyStates(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, nil, search.TabAll)
	assert.Contains(t, buf.String(), "no search performed")

	buf.Reset()
	RenderResults(&buf, &search.Bundle{}, search.TabAll)
	assert.Contains(t, buf.String(), "no results")
}

func TestRenderDashboard_Snapshot(t *testing.T) {
	v := dashboard.View{
		State:  "Maharashtra",
		City:   "Mumbai",
		Online: true,
		Snapshot: &citydata.Snapshot{
			RealTime: citydata.RealTime{Traffic: 58, AQI: 112, Energy: 71},
			Historical: []citydata.HistoricalPoint{
				{Time: "00:00", Traffic: 20, AQI: 80, Energy: 50},
				{Time: "01:00", Traffic: 80, AQI: 180, Energy: 90},
			},
			Alerts: []citydata.AlertSummary{
				{Category: "air_quality", Message: "AQI above 150", Severity: citydata.SeverityMedium, Timestamp: "10:30:00"},
			},
		},
	}

	var buf bytes.Buffer
	RenderDashboard(&buf, v)
	out := buf.String()

	assert.Contains(t, out, "== Mumbai, Maharashtra ==")
	assert.Contains(t, out, "traffic")
	assert.Contains(t, out, "24h traffic")
	assert.Contains(t, out, "[! ] 10:30:00 [air_quality] AQI above 150")
	assert.NotContains(t, out, "[offline]")
	assert.NotContains(t, out, "[stale]")
}

func TestRenderDashboard_Placeholders(t *testing.T) {
	var buf bytes.Buffer
	RenderDashboard(&buf, dashboard.View{State: "Delhi", City: "New Delhi", Online: true, Loading: true})
	assert.Contains(t, buf.String(), "loading…")

	buf.Reset()
	RenderDashboard(&buf, dashboard.View{State: "Delhi", City: "New Delhi", Online: false})
	out := buf.String()
	assert.Contains(t, out, "[offline] showing last known data")
	assert.Contains(t, out, "no data")

	buf.Reset()
	RenderDashboard(&buf, dashboard.View{
		State: "Delhi", City: "New Delhi", Online: true,
		Err: errors.New("backend unreachable"),
	})
	assert.Contains(t, buf.String(), "error: backend unreachable (press r to retry)")
}

func TestRenderDashboard_StaleSnapshot(t *testing.T) {
	var buf bytes.Buffer
	RenderDashboard(&buf, dashboard.View{
		State: "Delhi", City: "New Delhi", Online: true, Stale: true,
		Snapshot: &citydata.Snapshot{},
	})
	assert.Contains(t, buf.String(), "[stale] data may be out of date")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "▁▁▁", Sparkline([]float64{5, 5, 5}), "a flat series renders at the lowest level")
	assert.Equal(t, "▁█", Sparkline([]float64{0, 100}))

	line := Sparkline([]float64{0, 25, 50, 75, 100})
	runes := []rune(line)
	require.Len(t, runes, 5)
	assert.Equal(t, '▁', runes[0])
	assert.Equal(t, '█', runes[4])
}

func TestSeverityMarker(t *testing.T) {
	assert.Equal(t, "[!!]", SeverityMarker(citydata.SeverityHigh))
	assert.Equal(t, "[! ]", SeverityMarker(citydata.SeverityMedium))
	assert.Equal(t, "[  ]", SeverityMarker(citydata.SeverityLow))
	assert.Equal(t, "[  ]", SeverityMarker(citydata.Severity("unknown")))
}
