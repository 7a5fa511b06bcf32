package middleware

import (
	"net/http"
	"strconv"
	"time"

	"pet-adoption/internal/domain/applog"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

const unmatchedRoute = "unmatched"

// RequestLog deja cada request en el log de plataforma, en el log de diagnóstico
// (rec, opcional) y en el contador HTTP. Las rutas de skip no se registran en rec.
func RequestLog(log logger.Logger, rec *applog.Recorder, m *metrics.Metrics, skip ...string) func(http.Handler) http.Handler {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)

			if m != nil {
				m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			}

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  chimw.GetReqID(r.Context()),
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				fields["trace_id"] = sc.TraceID().String()
			}

			var userID string
			if claims, ok := GetClaims(r.Context()); ok {
				userID = claims.UserID
				fields["user_id"] = userID
			}

			if log != nil {
				log.Debug("http request", fields)
			}
			if _, skip := skipped[r.URL.Path]; skip || rec == nil {
				return
			}

			rec.Record(r.Context(), applog.RecordInput{
				Level:    levelFor(status),
				Action:   "http.request",
				Message:  r.Method + " " + route,
				UserID:   userID,
				Metadata: fields,
			})
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

func levelFor(status int) applog.Level {
	switch {
	case status >= 500:
		return applog.LevelError
	case status >= 400:
		return applog.LevelWarn
	default:
		return applog.LevelInfo
	}
}
