package httpsettle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-adoption/internal/platform/httpclient"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /escrows", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in struct {
			Amount int64 `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Amount <= 0 {
			http.Error(w, `{"error":"bad amount"}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"reference": "ref-1"})
	})
	mux.HandleFunc("POST /escrows/{ref}/release", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"txHash": "rel-" + r.PathValue("ref")})
	})
	mux.HandleFunc("POST /escrows/{ref}/refund", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"txHash": ""})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_RoundTrip(t *testing.T) {
	srv := newServer(t)
	p, err := New(Config{BaseURL: srv.URL, Token: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ref, err := p.Create(context.Background(), 100)
	if err != nil || ref != "ref-1" {
		t.Fatalf("create: ref=%q err=%v", ref, err)
	}

	hash, err := p.Release(context.Background(), ref)
	if err != nil || hash != "rel-ref-1" {
		t.Fatalf("release: hash=%q err=%v", hash, err)
	}
}

func TestProvider_Errors(t *testing.T) {
	srv := newServer(t)
	c, err := httpclient.NewWithBaseURL(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	// sin token
	p := NewWithClient(c, "")
	_, err = p.Create(context.Background(), 100)
	var he *httpclient.HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}

	// tx hash vacío
	p = NewWithClient(c, "secret")
	if _, err := p.Refund(context.Background(), "ref-1"); err == nil {
		t.Fatalf("expected error for empty tx hash")
	}

	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}
