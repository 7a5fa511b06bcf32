package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-adoption/internal/adapters/storage/memory"
	"pet-adoption/internal/domain/applog"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (v stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, v.err
	}
	return v.claims, nil
}

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(c.UserID + "|" + c.Role))
	})
}

func TestAuthContext_DevHeaders(t *testing.T) {
	h := AuthContext(nil)(claimsEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "u1")
	req.Header.Set("X-Debug-Role", "ADMIN")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1|admin", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContext_BearerToken(t *testing.T) {
	h := AuthContext(stubVerifier{claims: auth.Claims{UserID: "u2", Role: "whatever"}, err: context.Canceled})(claimsEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "u2|user", rr.Body.String())

	// Token inválido: sin claims, el handler decide.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	req.Header.Set("X-Debug-User-ID", "ignored")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequestLog_RecordsRouteStatusAndUser(t *testing.T) {
	store := memory.New()
	m := metrics.New()
	rec := applog.NewRecorder(store.AppLogs(), logger.Nop(), m.AppLogFailures)

	r := chi.NewRouter()
	r.Use(AuthContext(nil))
	r.Use(RequestLog(logger.Nop(), rec, m, "/health"))
	r.Get("/pets/{petID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/pets/p-1", nil)
	req.Header.Set("X-Debug-User-ID", "u1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	logs, err := store.AppLogs().ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, applog.LevelWarn, logs[0].Level)
	assert.Equal(t, "GET /pets/{petID}", logs[0].Message)
	assert.Equal(t, "u1", logs[0].UserID)
	assert.Equal(t, 404, logs[0].Metadata["status"])

	var out dto.Metric
	require.NoError(t, m.HTTPRequests.WithLabelValues("GET", "/pets/{petID}", "404").Write(&out))
	assert.Equal(t, float64(1), out.GetCounter().GetValue())
	require.NoError(t, m.HTTPRequests.WithLabelValues("GET", "/health", "200").Write(&out))
	assert.Equal(t, float64(1), out.GetCounter().GetValue())
}

func TestTrace_ContinuesIncomingTrace(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceID string
	h := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = trace.SpanContextFromContext(r.Context()).TraceID().String()
	}))

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set("traceparent", "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", traceID)
}
