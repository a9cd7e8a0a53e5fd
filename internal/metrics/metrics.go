// Package metrics exposes planner and upstream metrics on a private
// Prometheus registry.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry
	log *slog.Logger

	Plans        *prometheus.CounterVec // outcome label
	PlanDuration prometheus.Histogram
	PlanDays     prometheus.Histogram
	Restarts     prometheus.Counter
	LogsRendered prometheus.Counter

	UpstreamDuration *prometheus.HistogramVec // op label
	UpstreamErrors   *prometheus.CounterVec   // op label

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram
}

func NewCollector(log *slog.Logger) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		log: log,
		Plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_plans_total",
			Help: "Trip plans requested, by outcome.",
		}, []string{"outcome"}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_plan_duration_seconds",
			Help:    "End-to-end time to plan a trip, upstream calls included.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		PlanDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_plan_days",
			Help:    "Duty days per planned trip.",
			Buckets: prometheus.LinearBuckets(1, 1, 14),
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_restarts_total",
			Help: "34-hour restarts scheduled across all plans.",
		}),
		LogsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_log_sheets_rendered_total",
			Help: "Daily log sheets rendered.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_upstream_duration_seconds",
			Help:    "Duration of geocoding and routing calls.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"op"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_upstream_errors_total",
			Help: "Failed geocoding and routing calls.",
		}, []string{"op"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	reg.MustRegister(
		c.Plans, c.PlanDuration, c.PlanDays, c.Restarts, c.LogsRendered,
		c.UpstreamDuration, c.UpstreamErrors,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Registry returns the private registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Time starts timing an upstream operation. Call the returned func with a
// pointer to the operation's error, usually via defer:
//
//	defer c.Time(ctx, "geocode")(&err)
func (c *Collector) Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		dur := time.Since(start)
		c.UpstreamDuration.WithLabelValues(op).Observe(dur.Seconds())

		attrs := []any{"op", op, "duration_ms", dur.Milliseconds(), "request_id", middleware.GetReqID(ctx)}
		if errp != nil && *errp != nil {
			c.UpstreamErrors.WithLabelValues(op).Inc()
			c.log.WarnContext(ctx, "upstream call failed", append(attrs, "error", *errp)...)
			return
		}
		c.log.DebugContext(ctx, "upstream call", attrs...)
	}
}

// The methods below satisfy events.Metrics.

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}
