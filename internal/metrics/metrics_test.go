package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/health", "200", 0.1)
		m.Notification("ws", "sent")
		m.WSConnected()
		m.WSDisconnected()
		m.Registration("created")
		m.DonationRecorded("thanh_cong")
	})
}

func TestRecordersUpdateCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/events", "200", 0.02)
	m.ObserveRequest("GET", "/api/events", "200", 0.03)
	m.Notification("email", "failed")
	m.WSConnected()
	m.WSConnected()
	m.WSDisconnected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/events", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("email", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.DonationRecorded("thanh_cong")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blood_donation_donations_recorded_total")
}
