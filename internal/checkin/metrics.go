package checkin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels an account's result for one tick.
type Outcome string

const (
	OutcomeClaimed      Outcome = "claimed"
	OutcomeAlready      Outcome = "already_claimed"
	OutcomeHandled      Outcome = "handled"
	OutcomeRevoked      Outcome = "revoked"
	OutcomeExhausted    Outcome = "exhausted"
	OutcomeUnregistered Outcome = "unregistered"
)

// Metrics exposes scheduler counters to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	accounts     *prometheus.CounterVec
	ownerErrors  prometheus.Counter
	sendErrors   prometheus.Counter
	tickDuration prometheus.Histogram
	lastTick     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dailyclaim",
			Subsystem: "checkin",
			Name:      "accounts_total",
			Help:      "Accounts processed, by outcome.",
		}, []string{"outcome"}),
		ownerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dailyclaim",
			Subsystem: "checkin",
			Name:      "owner_failures_total",
			Help:      "Owners whose processing aborted with an error.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dailyclaim",
			Subsystem: "checkin",
			Name:      "notification_failures_total",
			Help:      "Notification messages that could not be delivered.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dailyclaim",
			Subsystem: "checkin",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of a full check-in sweep.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		lastTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dailyclaim",
			Subsystem: "checkin",
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time the last sweep finished.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.accounts, m.ownerErrors, m.sendErrors, m.tickDuration, m.lastTick)
	}
	return m
}

func (m *Metrics) account(o Outcome) {
	if m == nil {
		return
	}
	m.accounts.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) ownerFailed() {
	if m == nil {
		return
	}
	m.ownerErrors.Inc()
}

func (m *Metrics) sendFailed() {
	if m == nil {
		return
	}
	m.sendErrors.Inc()
}

func (m *Metrics) tickDone(took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(took.Seconds())
	m.lastTick.Set(float64(at.Unix()))
}
