package odin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-adoption/internal/ports/auth"
)

func newOdin(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Header.Get("X-Api-Key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var in struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		switch in.Token {
		case "admin-token":
			_ = json.NewEncoder(w).Encode(map[string]string{"user_id": "u-admin", "email": "a@x.io", "role": "ADMIN"})
		case "user-token":
			_ = json.NewEncoder(w).Encode(map[string]string{"user_id": "u-1", "role": "something"})
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifier_Verify(t *testing.T) {
	srv := newOdin(t)
	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	v := NewVerifier(client)

	c, err := v.Verify(t.Context(), "admin-token")
	if err != nil {
		t.Fatalf("verify admin: %v", err)
	}
	if c.UserID != "u-admin" || !c.IsAdmin() {
		t.Fatalf("unexpected claims %+v", c)
	}

	c, err = v.Verify(t.Context(), "user-token")
	if err != nil {
		t.Fatalf("verify user: %v", err)
	}
	if c.Role != auth.RoleUser {
		t.Fatalf("unknown role should fall back to user, got %q", c.Role)
	}
}

func TestVerifier_Errors(t *testing.T) {
	srv := newOdin(t)
	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	v := NewVerifier(client)

	if _, err := v.Verify(t.Context(), "nope"); !errors.Is(err, ErrOdinUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := v.Verify(t.Context(), "broken"); !errors.Is(err, ErrOdinUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if _, err := v.Verify(t.Context(), " "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected empty token error, got %v", err)
	}

	unconfigured, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, err := NewVerifier(unconfigured).Verify(t.Context(), "x"); !errors.Is(err, ErrOdinNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}
