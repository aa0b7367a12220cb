package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interpreter_gateway_active_sessions",
		Help: "Number of active interpretation sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interpreter_gateway_sessions_total",
		Help: "Total number of interpretation sessions",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interpreter_gateway_session_duration_seconds",
		Help:    "Duration of interpretation sessions in seconds",
		Buckets: []float64{10, 30, 60, 300, 600, 1200, 1800, 3600},
	})

	// Interpretation pipeline metrics
	utterancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_gateway_utterances_total",
		Help: "Total number of utterances produced by the normalizer",
	}, []string{"role"})

	translationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_gateway_translations_total",
		Help: "Total number of translations, by correlation outcome",
	}, []string{"outcome"}) // outcome: "matched" or "dropped"

	// Action detection metrics
	actionsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_gateway_actions_detected_total",
		Help: "Total number of clinical actions detected",
	}, []string{"type"})

	detectionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interpreter_gateway_detection_latency_seconds",
		Help:    "Rule engine detection latency in seconds",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// Webhook metrics
	webhookAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_gateway_webhook_attempts_total",
		Help: "Total number of webhook delivery attempts",
	}, []string{"result"}) // result: "success", "timeout", "error"

	webhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_gateway_webhook_deliveries_total",
		Help: "Total number of webhook deliveries by terminal status",
	}, []string{"status"}) // status: "sent" or "failed"

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "interpreter_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// Metrics tracks metrics for a single interpretation session
type Metrics struct {
	sessionID string
	startTime time.Time
	mu        sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	duration := time.Since(m.startTime).Seconds()
	sessionDuration.Observe(duration)
}

// RecordUtterance records an utterance produced by the normalizer
func (m *Metrics) RecordUtterance(role string) {
	utterancesTotal.WithLabelValues(role).Inc()
}

// RecordTranslation records a translation correlation outcome
func (m *Metrics) RecordTranslation(matched bool) {
	outcome := "matched"
	if !matched {
		outcome = "dropped"
	}
	translationsTotal.WithLabelValues(outcome).Inc()
}

// RecordDetection records detected actions and the time detection took
func (m *Metrics) RecordDetection(actionTypes []string, elapsed time.Duration) {
	detectionLatency.Observe(elapsed.Seconds())
	for _, t := range actionTypes {
		actionsDetected.WithLabelValues(t).Inc()
	}
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordWebhookAttempt records a single webhook delivery attempt
func RecordWebhookAttempt(result string) {
	webhookAttempts.WithLabelValues(result).Inc()
}

// RecordWebhookDelivery records the terminal status of a webhook delivery
func RecordWebhookDelivery(status string) {
	webhookDeliveries.WithLabelValues(status).Inc()
}

// RecordError records an error outside of a session context
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
