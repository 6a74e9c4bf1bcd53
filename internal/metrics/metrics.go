// Package metrics holds the Prometheus collectors of LexiGo.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for lessons, the arena, the generator and the HTTP API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	LessonsStartedTotal *prometheus.CounterVec
	SessionsFinished    prometheus.Counter
	JudgmentsTotal      *prometheus.CounterVec
	WordsDue            prometheus.Gauge
	GeneratorCallsTotal *prometheus.CounterVec
	GeneratorDuration   *prometheus.HistogramVec
	ArenaGamesTotal     *prometheus.CounterVec
	RemindersSentTotal  prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors once per process.
//
// Metrics:
//   - lexigo_lessons_started_total{category}
//   - lexigo_sessions_finished_total
//   - lexigo_judgments_total{result} - "known" or "unknown"
//   - lexigo_words_due - due words seen by the last lesson or reminder run
//   - lexigo_generator_calls_total{operation,outcome}
//   - lexigo_generator_duration_seconds{operation}
//   - lexigo_arena_games_total{outcome} - "finished", "wrong" or "timeout"
//   - lexigo_reminders_sent_total
//   - lexigo_http_requests_total{method,route,status}
//   - lexigo_http_request_duration_seconds{method,route}
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			LessonsStartedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lexigo_lessons_started_total",
					Help: "Total number of lessons started",
				},
				[]string{"category"},
			),

			SessionsFinished: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lexigo_sessions_finished_total",
					Help: "Total number of study sessions completed",
				},
			),

			JudgmentsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lexigo_judgments_total",
					Help: "Total number of word judgments",
				},
				[]string{"result"},
			),

			WordsDue: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "lexigo_words_due",
					Help: "Number of words due for review at the last check",
				},
			),

			GeneratorCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lexigo_generator_calls_total",
					Help: "Total number of calls to the content generator",
				},
				[]string{"operation", "outcome"},
			),

			GeneratorDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lexigo_generator_duration_seconds",
					Help:    "Duration of content generator calls in seconds",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
				},
				[]string{"operation"},
			),

			ArenaGamesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lexigo_arena_games_total",
					Help: "Total number of arena games ended, by outcome",
				},
				[]string{"outcome"},
			),

			RemindersSentTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lexigo_reminders_sent_total",
					Help: "Total number of review reminders sent",
				},
			),

			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lexigo_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),

			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lexigo_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})

	return globalMetrics
}

// RecordLessonStarted counts a started lesson and the due words it saw
func (m *Metrics) RecordLessonStarted(category string, due int) {
	if m == nil {
		return
	}
	m.LessonsStartedTotal.WithLabelValues(category).Inc()
	m.WordsDue.Set(float64(due))
}

// RecordJudgment counts one known/unknown answer
func (m *Metrics) RecordJudgment(known bool) {
	if m == nil {
		return
	}
	result := "unknown"
	if known {
		result = "known"
	}
	m.JudgmentsTotal.WithLabelValues(result).Inc()
}

// RecordSessionFinished counts a completed session
func (m *Metrics) RecordSessionFinished() {
	if m == nil {
		return
	}
	m.SessionsFinished.Inc()
}

// RecordGeneratorCall records the outcome and duration of a generator call
func (m *Metrics) RecordGeneratorCall(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GeneratorCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.GeneratorDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordArenaGame counts an ended arena game
func (m *Metrics) RecordArenaGame(outcome string) {
	if m == nil {
		return
	}
	m.ArenaGamesTotal.WithLabelValues(outcome).Inc()
}

// RecordReminder counts a sent reminder and the due words it announced
func (m *Metrics) RecordReminder(due int) {
	if m == nil {
		return
	}
	m.RemindersSentTotal.Inc()
	m.WordsDue.Set(float64(due))
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
