package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/citydata"
)

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL: baseURL,
		Logger:  zerolog.Nop(),
	})
}

func TestClient_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/locations" {
			t.Errorf("expected path /api/locations, got %s", r.URL.Path)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("expected Accept application/json, got %q", accept)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header to be set")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Maharashtra":["Mumbai"]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	raw, err := client.Get(context.Background(), Path("locations"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"Maharashtra":["Mumbai"]}` {
		t.Errorf("unexpected body: %s", raw)
	}
}

func TestClient_Get_QueryParams(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	query := url.Values{}
	query.Set("limit", "24")
	if _, err := client.Get(context.Background(), Path("metrics", "Delhi", "New Delhi"), query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Get("limit") != "24" {
		t.Errorf("expected limit=24, got %q", gotQuery.Get("limit"))
	}
}

func TestClient_Get_ServerDetailPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"City Atlantis not found in state Maharashtra"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Get(context.Background(), Path("dashboard", "Maharashtra", "Atlantis"), nil)
	if err == nil {
		t.Fatal("expected an error")
	}

	var cerr *citydata.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *citydata.Error, got %T", err)
	}
	if cerr.Code != "HTTP_404" {
		t.Errorf("expected code HTTP_404, got %s", cerr.Code)
	}
	if cerr.Message != "City Atlantis not found in state Maharashtra" {
		t.Errorf("expected server detail in message, got %q", cerr.Message)
	}
	if !errors.Is(err, citydata.ErrNotFound) {
		t.Error("expected error to wrap ErrNotFound")
	}
}

func TestClient_Get_GenericMessageWithoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Get(context.Background(), Path(), nil)
	var cerr *citydata.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *citydata.Error, got %T", err)
	}
	if cerr.Message != "backend returned status 500" {
		t.Errorf("expected generic message, got %q", cerr.Message)
	}
	if !errors.Is(err, citydata.ErrBackendUnavailable) {
		t.Error("expected error to wrap ErrBackendUnavailable")
	}
}

func TestClient_Get_NeverRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.Get(context.Background(), Path(), nil); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 request, got %d", calls)
	}
}

func TestClient_Get_Unreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.Get(context.Background(), Path(), nil)
	if !errors.Is(err, citydata.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestPath_EscapesSegments(t *testing.T) {
	got := Path("dashboard", "Tamil Nadu", "Chennai")
	want := "/dashboard/Tamil%20Nadu/Chennai"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if root := Path(); root != "/" {
		t.Errorf("expected /, got %s", root)
	}
}
