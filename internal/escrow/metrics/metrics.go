package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the escrow ledger.
type Metrics struct {
	// Deposits recorded from payment captures
	DepositsRecorded prometheus.Counter

	// Deposit status transitions by from/to status
	DepositTransitions *prometheus.CounterVec
}

// New creates a new Metrics instance with all escrow metrics registered.
func New() *Metrics {
	return &Metrics{
		DepositsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "conveyo_escrow_deposits_recorded_total",
			Help: "Total deposits recorded from payment captures",
		}),

		DepositTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conveyo_escrow_deposit_transitions_total",
			Help: "Total deposit status transitions by from and to status",
		}, []string{"from", "to"}),
	}
}

// IncDepositRecorded records a newly captured deposit.
func (m *Metrics) IncDepositRecorded() {
	if m != nil {
		m.DepositsRecorded.Inc()
	}
}

// ObserveTransition records a deposit status transition.
func (m *Metrics) ObserveTransition(from, to string) {
	if m != nil {
		m.DepositTransitions.WithLabelValues(from, to).Inc()
	}
}
