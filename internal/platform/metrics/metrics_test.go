package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Transitions.WithLabelValues("adoption", "REQUESTED", "PENDING_REVIEW", "ok").Inc()

	line := `pet_adoption_transitions_total{entity="adoption",from="REQUESTED",outcome="ok",to="PENDING_REVIEW"} 1`
	assert.Contains(t, scrape(t, a), line)
	assert.NotContains(t, scrape(t, b), line)
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.EscrowOps.WithLabelValues("release", "ok").Inc()
	m.AppLogFailures.Inc()

	body := scrape(t, m)
	assert.Contains(t, body, `pet_adoption_escrow_operations_total{op="release",outcome="ok"} 1`)
	assert.Contains(t, body, "pet_adoption_applog_write_failures_total 1")
}
