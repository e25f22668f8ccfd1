// Package metrics registers the Prometheus collectors of the auth service.
package metrics

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-market-auth/middleware/trace"
)

const namespace = "market_auth"

type Metrics struct {
	Requests      *prometheus.CounterVec
	GateDecisions *prometheus.CounterVec
	OTPCalls      *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and final status.",
		}, []string{"method", "status"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Admin gate decisions by outcome.",
		}, []string{"outcome"}),
		OTPCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_calls_total",
			Help:      "Verification provider calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.GateDecisions, m.OTPCalls)
	return m
}

// Gatherer exposes the registry, mostly for tests
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// ObserveGate counts an admin gate decision
func (m *Metrics) ObserveGate(outcome string) {
	m.GateDecisions.WithLabelValues(outcome).Inc()
}

// ObserveOTP counts a provider call
func (m *Metrics) ObserveOTP(op, outcome string) {
	m.OTPCalls.WithLabelValues(op, outcome).Inc()
}

// Middleware counts every request by its final status. It runs on the fiber
// app so unmatched routes are counted too.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = trace.StatusFromError(err)
		}
		// fiber strings point into reused buffers
		m.Requests.WithLabelValues(strings.Clone(c.Method()), strconv.Itoa(status)).Inc()
		return err
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() router.HandlerFunc {
	return router.HandlerFromHTTP(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
