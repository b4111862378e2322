// Package metrics exposes Prometheus collectors for HTTP traffic and the
// attempt and grading lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	AttemptsStarted   *prometheus.CounterVec
	AttemptsCompleted *prometheus.CounterVec
	AnswersGraded     *prometheus.CounterVec
	CodeServerCalls   *prometheus.CounterVec
}

// New builds collectors on a private registry so tests can create many.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		AttemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_started_total",
				Help: "Answer papers created or resumed",
			},
			[]string{"outcome"}, // created, resumed, denied
		),
		AttemptsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_completed_total",
				Help: "Answer papers moved to completed",
			},
			[]string{"reason"}, // quit, expired
		),
		AnswersGraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_graded_total",
				Help: "Answers graded by question type and result",
			},
			[]string{"type", "correct"},
		),
		CodeServerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_code_server_calls_total",
				Help: "Calls to the code server by operation and result",
			},
			[]string{"operation", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.RequestCounter,
		m.RequestDuration,
		m.AttemptsStarted,
		m.AttemptsCompleted,
		m.AnswersGraded,
		m.CodeServerCalls,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func (m *Metrics) AttemptStarted(outcome string) {
	if m == nil {
		return
	}
	m.AttemptsStarted.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AttemptCompleted(reason string) {
	if m == nil {
		return
	}
	m.AttemptsCompleted.WithLabelValues(reason).Inc()
}

func (m *Metrics) AnswerGraded(questionType string, correct bool) {
	if m == nil {
		return
	}
	m.AnswersGraded.WithLabelValues(questionType, strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) CodeServerCall(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CodeServerCalls.WithLabelValues(operation, result).Inc()
}
