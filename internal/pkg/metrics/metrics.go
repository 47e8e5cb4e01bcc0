package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered on the default registry through promauto.
var (
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pennyfox_gate_decisions_total",
			Help: "Feature gate decisions by feature and reason.",
		},
		[]string{"feature", "reason"},
	)

	LimitDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pennyfox_limit_denials_total",
			Help: "Resource creations refused by a plan limit.",
		},
		[]string{"resource", "plan"},
	)

	InstallmentsCredited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pennyfox_loan_installments_credited_total",
			Help: "Loan installments marked paid, by source (catch_up, autopay, repair, edit).",
		},
		[]string{"source"},
	)

	Autopay = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pennyfox_autopay_total",
			Help: "Automatic loan payment attempts by outcome.",
		},
		[]string{"outcome"},
	)

	Jobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pennyfox_jobs_total",
			Help: "Background jobs processed by type and final status.",
		},
		[]string{"type", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pennyfox_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "code"},
	)
)

// Autopay outcomes.
const (
	AutopayCreated       = "created"
	AutopayAlreadyExists = "already_recorded"
	AutopayNoPrimaryBank = "no_primary_bank"
	AutopayFailed        = "failed"
)

// Middleware records request latency keyed by the matched route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		path := c.Route().Path
		httpRequestDuration.WithLabelValues(c.Method(), path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
