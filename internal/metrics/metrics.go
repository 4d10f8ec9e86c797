// Package metrics exposes Prometheus collectors for request admission
// decisions and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/apperr"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decision outcomes.
const (
	Allowed     = "allowed"
	Denied      = "denied"
	Unknown     = "unknown"
	Disabled    = "disabled"
	Limited     = "rate_limited"
	Missing     = "missing_key"
	Invalid     = "invalid_key"
	Maintenance = "maintenance"
)

type Metrics struct {
	registry prometheus.Gatherer

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TenantDecisions  *prometheus.CounterVec
	CORSDecisions    *prometheus.CounterVec
	GateDecisions    *prometheus.CounterVec
	SessionRefreshes *prometheus.CounterVec
}

// New registers every collector on reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		TenantDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenant_resolutions_total",
			Help: "Tenant resolution outcomes",
		}, []string{"outcome"}),
		CORSDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cors_decisions_total",
			Help: "CORS evaluation outcomes by matching step",
		}, []string{"outcome", "source"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "function_gate_decisions_total",
			Help: "Function gate outcomes per capability",
		}, []string{"function", "outcome"}),
		SessionRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_refreshes_total",
			Help: "Silent refresh attempts",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.TenantDecisions,
		m.CORSDecisions,
		m.GateDecisions,
		m.SessionRefreshes,
	)
	return m
}

func (m *Metrics) Tenant(outcome string) {
	m.TenantDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CORS(outcome, source string) {
	m.CORSDecisions.WithLabelValues(outcome, source).Inc()
}

func (m *Metrics) Gate(function, outcome string) {
	m.GateDecisions.WithLabelValues(function, outcome).Inc()
}

func (m *Metrics) Refresh(outcome string) {
	m.SessionRefreshes.WithLabelValues(outcome).Inc()
}

// Middleware records one sample per request, labelled by route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		m.RequestCounter.WithLabelValues(c.Method(), path, statusStr).Inc()
		m.RequestDuration.WithLabelValues(c.Method(), path, statusStr).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func statusOf(err error) int {
	if ae := apperr.As(err); ae != nil {
		return ae.Status
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return http.StatusInternalServerError
}
