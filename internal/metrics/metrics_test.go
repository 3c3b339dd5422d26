package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Ticks.Inc()
	m.Ticks.Inc()
	m.AlertsCreated.WithLabelValues("poll").Inc()
	m.Notifications.WithLabelValues("slack", OutcomeFailed).Inc()
	m.Viewers.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsCreated.WithLabelValues("poll")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("slack", OutcomeFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Viewers))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Ticks.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sentinel_poll_ticks_total 1")
	assert.Contains(t, string(body), "sentinel_live_viewers 0")
}
