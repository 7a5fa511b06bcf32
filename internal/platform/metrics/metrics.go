package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pet_adoption"

// Metrics agrupa los contadores del servicio sobre un registry propio, de modo que
// los tests puedan crear instancias independientes sin chocar con el registry global.
type Metrics struct {
	Registry *prometheus.Registry

	// Transitions cuenta intentos de transición por entidad, origen, destino y resultado
	// (ok, invalid, forbidden, conflict, error).
	Transitions *prometheus.CounterVec

	// EscrowOps cuenta operaciones del ledger (create, release, refund) por resultado.
	EscrowOps *prometheus.CounterVec

	// AppLogFailures cuenta escrituras del log de diagnóstico que fallaron.
	AppLogFailures prometheus.Counter

	// HTTPRequests cuenta requests por método, ruta y status.
	HTTPRequests *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Lifecycle transition attempts",
			},
			[]string{"entity", "from", "to", "outcome"},
		),
		EscrowOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escrow_operations_total",
				Help:      "Escrow ledger operations",
			},
			[]string{"op", "outcome"},
		),
		AppLogFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "applog_write_failures_total",
				Help:      "Diagnostic log writes that failed",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(
		m.Transitions,
		m.EscrowOps,
		m.AppLogFailures,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
