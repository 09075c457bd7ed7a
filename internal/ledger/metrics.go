package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maplecase_ledger_snapshots_persisted_total",
		Help: "Snapshots appended to the case ledger.",
	})
	persistRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maplecase_ledger_persist_retries_total",
		Help: "Snapshot writes retried after losing a version race.",
	})
	persistAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maplecase_ledger_persist_attempts",
		Help:    "Attempts needed to persist one snapshot.",
		Buckets: []float64{1, 2, 3},
	})
)

// Metrics records ledger write outcomes. A nil receiver is a no-op so
// tests can pass nil without touching the registry.
type Metrics struct{}

// NewMetrics returns the ledger metrics recorder. Collectors register on
// the default registry at package load.
func NewMetrics() *Metrics { return &Metrics{} }

// SnapshotPersisted counts one successful write and the attempts it took.
func (m *Metrics) SnapshotPersisted(attempt int) {
	if m == nil {
		return
	}
	snapshotsPersisted.Inc()
	persistAttempts.Observe(float64(attempt))
}

// PersistRetried counts one lost version race.
func (m *Metrics) PersistRetried() {
	if m == nil {
		return
	}
	persistRetries.Inc()
}
