// Package metrics exposes Prometheus collectors for the HTTP layer, the pricing
// engine and mail delivery.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/domain/pricing"
	"traiteur_devis/internal/usecase/interfaces"
)

const namespace = "traiteur_devis"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	pricingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "computations_total",
			Help:      "Budget computations by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)

	pricingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "computation_duration_seconds",
			Help:      "Duration of budget computations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 17), // 1ms to ~65s
		},
		[]string{"strategy"},
	)

	mailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "deliveries_total",
			Help:      "E-mail deliveries by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		pricingRuns,
		pricingDuration,
		mailsSent,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency labelled by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// InstrumentCalculator wraps a pricing strategy with duration and outcome metrics.
func InstrumentCalculator(next pricing.Calculator) pricing.Calculator {
	return instrumentedCalculator{next: next}
}

type instrumentedCalculator struct {
	next pricing.Calculator
}

func (c instrumentedCalculator) Strategy() pricing.Strategy { return c.next.Strategy() }

func (c instrumentedCalculator) ComputeBudget(ctx context.Context, order entities.Order) (entities.BudgetData, error) {
	strategy := string(c.next.Strategy())
	start := time.Now()
	data, err := c.next.ComputeBudget(ctx, order)
	pricingDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	pricingRuns.WithLabelValues(strategy, outcome(err)).Inc()
	return data, err
}

// InstrumentMailer counts deliveries by outcome.
func InstrumentMailer(next interfaces.IMailer) interfaces.IMailer {
	return instrumentedMailer{next: next}
}

type instrumentedMailer struct {
	next interfaces.IMailer
}

func (m instrumentedMailer) Send(ctx context.Context, msg entities.EmailMessage) (string, error) {
	id, err := m.next.Send(ctx, msg)
	mailsSent.WithLabelValues(outcome(err)).Inc()
	return id, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, entities.ErrValidation):
		return "invalid_input"
	case errors.Is(err, entities.ErrUpstreamParse):
		return "upstream_parse"
	case errors.Is(err, entities.ErrInvariantViolation):
		return "invariant_violation"
	default:
		return "error"
	}
}
