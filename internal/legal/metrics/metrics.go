package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the legal transaction state machine.
type Metrics struct {
	// Accepted status transitions by from/to status
	Transitions *prometheus.CounterVec

	// Rejected commands by command name and error code
	Rejections *prometheus.CounterVec

	// Command handling latency by command name
	CommandLatency *prometheus.HistogramVec

	// Reservations cancelled by the expiry sweeper
	ExpiredSweeps prometheus.Counter
}

// New creates a new Metrics instance with all legal module metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conveyo_legal_transitions_total",
			Help: "Total accepted legal status transitions by from and to status",
		}, []string{"from", "to"}),

		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conveyo_legal_rejections_total",
			Help: "Total rejected legal commands by command and error code",
		}, []string{"command", "code"}),

		CommandLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conveyo_legal_command_duration_seconds",
			Help:    "Duration of legal command handling including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"command"}),

		ExpiredSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "conveyo_legal_expired_reservations_total",
			Help: "Total reservations cancelled by the expiry sweeper",
		}),
	}
}

// ObserveTransition records an accepted status transition.
func (m *Metrics) ObserveTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// IncRejection records a rejected command.
func (m *Metrics) IncRejection(command, code string) {
	if m != nil {
		m.Rejections.WithLabelValues(command, code).Inc()
	}
}

// ObserveCommand records the duration of one command invocation.
func (m *Metrics) ObserveCommand(command string, d time.Duration) {
	if m != nil {
		m.CommandLatency.WithLabelValues(command).Observe(d.Seconds())
	}
}

// IncExpired records one reservation swept into CANCELLED.
func (m *Metrics) IncExpired() {
	if m != nil {
		m.ExpiredSweeps.Inc()
	}
}
