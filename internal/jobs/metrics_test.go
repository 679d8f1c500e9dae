package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("catalog:low_stock_scan").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("catalog:low_stock_scan").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("catalog:low_stock_scan", outcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("catalog:low_stock_scan", outcomeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("catalog:low_stock_scan")))
	require.Positive(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("catalog:low_stock_scan")))
}

func TestLowStockGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetLowStock(4)
	require.Equal(t, 4.0, testutil.ToFloat64(m.lowStock))
}

func TestNilMetricsIgnoreCalls(t *testing.T) {
	var m *Metrics
	m.SetLowStock(1)
	require.NoError(t, m.Track("dashboard:warmup").End(nil))
}

func TestDefaultRegistryInstanceIsShared(t *testing.T) {
	require.Same(t, NewMetrics(nil), NewMetrics(nil))
}
