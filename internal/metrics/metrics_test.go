package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestNew_IndependentRegistries レジストリはインスタンスごとに独立
func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.MessagesBroadcast.Inc()

	require.Equal(t, 1.0, testutil.ToFloat64(a.MessagesBroadcast))
	require.Equal(t, 0.0, testutil.ToFloat64(b.MessagesBroadcast))
}

// TestHandler_ExposesCollectors /metrics の出力
func TestHandler_ExposesCollectors(t *testing.T) {
	req := require.New(t)
	m := New()
	m.MessagesSubmitted.WithLabelValues(IngressREST).Inc()
	m.WSConnections.Set(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	req.Equal(http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	req.NoError(err)
	req.Contains(string(body), `socialhub_messages_submitted_total{ingress="rest"} 1`)
	req.Contains(string(body), "socialhub_ws_connections 2")
}
