package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics for the journal service. Each
// collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Transitions counts lifecycle transitions by name and whether they applied.
	Transitions *prometheus.CounterVec
	// Fallbacks counts AI calls replaced by canned values.
	Fallbacks *prometheus.CounterVec
	// BeadsImported counts drafts written to queues by imports.
	BeadsImported prometheus.Counter
	// QuestionTasks counts question generation tasks by result.
	QuestionTasks *prometheus.CounterVec
	StreamClients prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bead_transitions_total",
				Help:      "Lifecycle transitions by kind and outcome",
			},
			[]string{"transition", "applied"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_fallbacks_total",
				Help:      "AI calls answered with fallback values",
			},
			[]string{"operation"},
		),
		BeadsImported: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "beads_imported_total",
				Help:      "Draft beads created by imports",
			},
		),
		QuestionTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "question_tasks_total",
				Help:      "Reflection question tasks by result",
			},
			[]string{"result"},
		),
		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_clients",
				Help:      "Connected websocket clients on this instance",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Transitions,
		c.Fallbacks,
		c.BeadsImported,
		c.QuestionTasks,
		c.StreamClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordTransition(transition string, applied bool) {
	c.Transitions.WithLabelValues(transition, strconv.FormatBool(applied)).Inc()
}

func (c *Collector) RecordFallback(operation string) {
	c.Fallbacks.WithLabelValues(operation).Inc()
}

// Middleware records request count and latency per matched route.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		route := ctx.Route().Path
		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		c.HTTPRequests.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
