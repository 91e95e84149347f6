// Package metrics exposes Prometheus instrumentation for the ledger
// shell.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

// Result label values.
const (
	ResultAccepted       = "accepted"
	ResultDecodeError    = "decode_error"
	ResultNotIncremental = "not_incremental"
)

// Metrics holds the shell's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	MempoolChecks  *prometheus.CounterVec
	TxsApplied     *prometheus.CounterVec
	Commits        prometheus.Counter
	CommittedCount prometheus.Gauge
	Height         prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MempoolChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "checks_total",
			Help:      "Mempool admission checks by kind and result",
		}, []string{"kind", "result"}),

		TxsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "txs_applied_total",
			Help:      "Finalized transactions applied by result",
		}, []string{"result"}),

		Commits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "commits_total",
			Help:      "Total commits",
		}),

		CommittedCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "committed_count",
			Help:      "Committed counter value",
		}),

		Height: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "height",
			Help:      "Last committed block height",
		}),
	}
}

// ObserveCheck records a mempool admission check.
func (m *Metrics) ObserveCheck(kind, result string) {
	if m == nil {
		return
	}
	m.MempoolChecks.WithLabelValues(kind, result).Inc()
}

// ObserveApply records an applied transaction.
func (m *Metrics) ObserveApply(result string) {
	if m == nil {
		return
	}
	m.TxsApplied.WithLabelValues(result).Inc()
}

// ObserveCommit records a commit of the given height and counter.
func (m *Metrics) ObserveCommit(height, count uint64) {
	if m == nil {
		return
	}
	m.Commits.Inc()
	m.Height.Set(float64(height))
	m.CommittedCount.Set(float64(count))
}
