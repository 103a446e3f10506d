package telemetry_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/skynet/internal/telemetry"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, telemetry.ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, telemetry.ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, telemetry.ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, telemetry.ParseLevel("verbose"))
}

func TestNewLogger(t *testing.T) {
	logger, err := telemetry.NewLogger("debug", "stderr")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := telemetry.NewMetrics()
	m.RecordRequest("Quote", "2xx", 0.12)
	m.RecordRequest("Quote", "2xx", 0.08)
	m.RecordError("Quote", "transport")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("Quote", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationErrors.WithLabelValues("Quote", "transport")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := telemetry.NewMetrics()
	b := telemetry.NewMetrics()
	a.RecordRequest("TrackWaybill", "2xx", 0.01)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.RequestsTotal.WithLabelValues("TrackWaybill", "2xx")))
}

func TestMetrics_Handler(t *testing.T) {
	m := telemetry.NewMetrics()
	m.RecordRequest("TrackWaybill", "2xx", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `skynet_requests_total{operation="TrackWaybill",status="2xx"} 1`)
}
