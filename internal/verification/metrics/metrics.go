package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Tokens issued to joining members
	TokensIssued prometheus.Counter

	// Consume results: ok, not_found, expired, already_used, error
	TokenConsumes *prometheus.CounterVec

	// Tokens removed by sweeps
	TokensSwept prometheus.Counter

	// Attempt outcomes: accepted, invalid_token, alt_detected, internal_error
	AttemptOutcome *prometheus.CounterVec

	// Alt detections by match type
	AltMatches *prometheus.CounterVec

	// Sink dispatch failures by operation
	SinkFailures *prometheus.CounterVec

	// Overall attempt latency
	AttemptLatency prometheus.Histogram
}

// New creates verification metrics registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		TokensIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "altguard_tokens_issued_total",
			Help: "Total verification tokens issued",
		}),
		TokenConsumes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altguard_token_consumes_total",
			Help: "Verification token consume attempts by result",
		}, []string{"result"}),
		TokensSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "altguard_tokens_swept_total",
			Help: "Total expired verification tokens removed by sweeps",
		}),
		AttemptOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altguard_verification_outcomes_total",
			Help: "Verification attempt outcomes",
		}, []string{"outcome"}),
		AltMatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altguard_alt_matches_total",
			Help: "Alt account detections by match type",
		}, []string{"match_type"}),
		SinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altguard_sink_failures_total",
			Help: "Failed enforcement or notification dispatches by operation",
		}, []string{"operation"}),
		AttemptLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "altguard_verification_attempt_duration_seconds",
			Help:    "Duration of verification attempts up to the decision",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.TokensIssued.Inc()
	}
}

func (m *Metrics) IncrementConsume(result string) {
	if m != nil {
		m.TokenConsumes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) AddSwept(n int) {
	if m != nil && n > 0 {
		m.TokensSwept.Add(float64(n))
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.AttemptOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementAltMatch(matchType string) {
	if m != nil {
		m.AltMatches.WithLabelValues(matchType).Inc()
	}
}

func (m *Metrics) IncrementSinkFailure(operation string) {
	if m != nil {
		m.SinkFailures.WithLabelValues(operation).Inc()
	}
}

// ObserveAttemptLatency records the time from submission to decision.
func (m *Metrics) ObserveAttemptLatency(d time.Duration) {
	if m != nil {
		m.AttemptLatency.Observe(d.Seconds())
	}
}
