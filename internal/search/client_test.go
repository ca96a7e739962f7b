package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/citypulse/internal/transport"
)

const globalResponseBody = `{
  "query": "Mumbai",
  "filters_applied": {},
  "results": {
    "metrics": [
      {"id":"m1","city":"Mumbai","state":"Maharashtra","traffic_percentage":85.5,"aqi_value":180,"energy_percentage":72.3,"timestamp":"2025-08-29T16:30:00Z","source":"sensor","score":1.0},
      {"id":"m2","city":"Mumbai","state":"Maharashtra","traffic_percentage":80.1,"aqi_value":170,"energy_percentage":70.0,"timestamp":"2025-08-29T16:25:00Z","source":"sensor","score":0.9}
    ],
    "alerts": [
      {"id":"a1","city":"Mumbai","state":"Maharashtra","alert_type":"warning","category":"traffic","message":"Heavy traffic congestion detected","severity":"high","is_active":true,"created_at":"2025-08-29T16:25:00Z","score":0.9}
    ],
    "predictions": [
      {"id":"p1","city":"Mumbai","state":"Maharashtra","timeframe":"1hour","predicted_traffic":88.2,"predicted_aqi":185,"predicted_energy":75.1,"confidence_score":0.87,"created_at":"2025-08-29T16:30:00Z","score":0.87}
    ],
    "total": 4
  },
  "timestamp": "2025-08-29T16:31:00Z"
}`

func newTestSearch(baseURL string) *Client {
	return NewClient(transport.New(transport.Config{
		BaseURL: baseURL,
		Logger:  zerolog.Nop(),
	}), zerolog.Nop())
}

func TestClient_Global(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/global", r.URL.Path)
		assert.Equal(t, "Mumbai", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("size"))
		w.Write([]byte(globalResponseBody))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	bundle, err := client.Global(context.Background(), "Mumbai", Filters{}, 0)
	require.NoError(t, err)

	assert.Len(t, bundle.Metrics, 2)
	assert.Len(t, bundle.Alerts, 1)
	assert.Len(t, bundle.Predictions, 1)
	assert.Equal(t, bundle.Total,
		len(bundle.Metrics)+len(bundle.Alerts)+len(bundle.Predictions),
		"total must equal the sum of the bucket lengths")
	assert.Equal(t, 0.87, bundle.Predictions[0].Confidence)
}

func TestClient_Global_FiltersOnQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Mumbai,Delhi", r.URL.Query().Get("cities"))
		assert.Equal(t, "80", r.URL.Query().Get("traffic_min"))
		assert.False(t, r.URL.Query().Has("aqi_min"))
		w.Write([]byte(`{"query":"","results":{"metrics":[],"alerts":[],"predictions":[],"total":0}}`))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	f := Filters{
		Cities:     []string{"Mumbai", "Delhi"},
		TrafficMin: Bound(80),
	}
	bundle, err := client.Global(context.Background(), "", f, 10)
	require.NoError(t, err)
	assert.True(t, bundle.Empty())
}

func TestClient_Alerts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/alerts", r.URL.Path)
		assert.Equal(t, "heavy traffic", r.URL.Query().Get("q"))
		w.Write([]byte(`{"query":"heavy traffic","results":[{"id":"a1","city":"Mumbai","state":"Maharashtra","alert_type":"warning","category":"traffic","message":"Heavy traffic","severity":"high","is_active":true,"created_at":"2025-08-29T16:25:00Z","score":0.9}],"count":1}`))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	hits, err := client.Alerts(context.Background(), "heavy traffic", Filters{}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "warning", hits[0].Type)
}

func TestClient_Tab_MetricsUsesDedicatedEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/metrics", r.URL.Path)
		w.Write([]byte(`{"results":[{"id":"m1","city":"Mumbai","state":"Maharashtra","traffic_percentage":85.5,"aqi_value":180,"energy_percentage":72.3,"timestamp":"2025-08-29T16:30:00Z","source":"sensor","score":1.0}],"count":1}`))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	bundle, err := client.Tab(context.Background(), TabMetrics, "Mumbai", Filters{}, 0)
	require.NoError(t, err)
	require.Len(t, bundle.Metrics, 1)
	assert.Empty(t, bundle.Alerts)
	assert.Equal(t, 1, bundle.Total)
}

func TestClient_Tab_AlertsUsesDedicatedEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/alerts", r.URL.Path)
		assert.Equal(t, "congestion", r.URL.Query().Get("q"))
		w.Write([]byte(`{"query":"congestion","results":[{"id":"a1","city":"Mumbai","state":"Maharashtra","alert_type":"warning","category":"traffic","message":"Heavy traffic congestion detected","severity":"high","is_active":true,"created_at":"2025-08-29T16:25:00Z","score":0.9}],"count":1}`))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	bundle, err := client.Tab(context.Background(), TabAlerts, "congestion", Filters{}, 0)
	require.NoError(t, err)
	require.Len(t, bundle.Alerts, 1)
	assert.Empty(t, bundle.Metrics)
	assert.Equal(t, 1, bundle.Total)
}

func TestClient_Tab_PredictionsSlicesGlobal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/global", r.URL.Path)
		w.Write([]byte(globalResponseBody))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	bundle, err := client.Tab(context.Background(), TabPredictions, "Mumbai", Filters{}, 0)
	require.NoError(t, err)
	require.Len(t, bundle.Predictions, 1)
	assert.Empty(t, bundle.Metrics, "the predictions tab must hide the other buckets")
	assert.Empty(t, bundle.Alerts)
	assert.Equal(t, 1, bundle.Total)
}

func TestClient_Tab_DefaultIsGlobal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/global", r.URL.Path)
		w.Write([]byte(globalResponseBody))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	bundle, err := client.Tab(context.Background(), TabAll, "Mumbai", Filters{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, bundle.Total)
}

func TestClient_Suggestions_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mum", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		w.Write([]byte(`["Mumbai","Mumbai Suburban"]`))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	suggestions := client.Suggestions(context.Background(), "mum", 0)
	assert.Equal(t, []string{"Mumbai", "Mumbai Suburban"}, suggestions)
}

func TestClient_Suggestions_FailureSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	suggestions := client.Suggestions(context.Background(), "mum", 5)
	assert.NotNil(t, suggestions, "suggestions must degrade to an empty list, never nil")
	assert.Empty(t, suggestions)
}

func TestClient_Suggestions_UnreachableBackend(t *testing.T) {
	client := newTestSearch("http://127.0.0.1:1")

	suggestions := client.Suggestions(context.Background(), "mum", 5)
	assert.NotNil(t, suggestions)
	assert.Empty(t, suggestions)
}

func TestClient_Export(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/export", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Write([]byte(`{"export_data":[{"type":"metric","city":"Mumbai","state":"Maharashtra","traffic_percentage":85.5,"aqi_value":180,"energy_percentage":72.3,"timestamp":"2025-08-29T16:30:00Z","source":"sensor"}],"total_records":1,"query":"Mumbai","format":"csv","generated_at":"2025-08-29T16:31:00Z"}`))
	}))
	defer server.Close()

	client := newTestSearch(server.URL)

	bundle, err := client.Export(context.Background(), "Mumbai", Filters{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, 1, bundle.Total)
	require.Len(t, bundle.Records, 1)
	assert.Equal(t, "metric", bundle.Records[0].Type)
	require.NotNil(t, bundle.Records[0].Traffic)
	assert.Equal(t, 85.5, *bundle.Records[0].Traffic)
}
