package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewWithBaseURL_Validates(t *testing.T) {
	if _, err := NewWithBaseURL("not a url", time.Second); err == nil {
		t.Fatalf("expected error for invalid url")
	}
	if _, err := NewWithBaseURL("ftp://example.com", time.Second); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
	c, err := NewWithBaseURL("http://example.com/api/", time.Second)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.BaseURL != "http://example.com/api" {
		t.Fatalf("base url not trimmed: %q", c.BaseURL)
	}
}

func TestDoJSON_SendsBodyAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/escrows" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Test") != "1" {
			t.Errorf("missing headers: %v", r.Header)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":"ref-1"}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var out struct {
		Reference string `json:"reference"`
	}
	if err := c.DoJSON(t.Context(), http.MethodPost, "escrows", map[string]string{"X-Test": "1"}, map[string]any{"amount": 10}, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Reference != "ref-1" {
		t.Fatalf("reference = %q", out.Reference)
	}
}

func TestDoJSON_Non2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := NewWithBaseURL(srv.URL, time.Second)
	err := c.DoJSON(t.Context(), http.MethodGet, "/x", nil, nil, nil)

	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusForbidden || he.Body != "nope" {
		t.Fatalf("expected 403 HTTPError, got %v", err)
	}
}

func TestDoJSON_RetriesIdempotentOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := NewWithBaseURL(srv.URL, time.Second)
	c.Retries = 2
	c.Backoff = time.Millisecond

	if err := c.DoJSON(t.Context(), http.MethodGet, "/x", nil, nil, nil); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestDoJSON_NeverRetriesPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewWithBaseURL(srv.URL, time.Second)
	c.Retries = 3
	c.Backoff = time.Millisecond

	if err := c.DoJSON(t.Context(), http.MethodPost, "/x", nil, map[string]int{"a": 1}, nil); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestDoJSON_InjectsTraceContext(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("traceparent")
	}))
	defer srv.Close()

	c, _ := NewWithBaseURL(srv.URL, time.Second)
	c.Propagator = propagation.TraceContext{}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	if err := c.DoJSON(ctx, http.MethodGet, "/x", nil, nil, nil); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	want := "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01"
	if got != want {
		t.Fatalf("traceparent = %q, want %q", got, want)
	}
}
