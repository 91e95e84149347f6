package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCheck("new", ResultAccepted)
	m.ObserveCheck("new", ResultAccepted)
	m.ObserveCheck("recheck", ResultNotIncremental)
	m.ObserveApply(ResultDecodeError)
	m.ObserveCommit(4, 9)

	require.Equal(t, 2.0, testutil.ToFloat64(m.MempoolChecks.WithLabelValues("new", ResultAccepted)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MempoolChecks.WithLabelValues("recheck", ResultNotIncremental)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TxsApplied.WithLabelValues(ResultDecodeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Commits))
	require.Equal(t, 4.0, testutil.ToFloat64(m.Height))
	require.Equal(t, 9.0, testutil.ToFloat64(m.CommittedCount))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCheck("new", ResultAccepted)
	m.ObserveApply(ResultAccepted)
	m.ObserveCommit(1, 1)
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}
