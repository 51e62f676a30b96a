// Package telemetry exposes Prometheus metrics for HTTP traffic, access
// decisions and the database pool.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicemr/api/internal/platform/db"
	"github.com/clinicemr/api/internal/platform/response"
)

const namespace = "emr"

// Provider owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Provider struct {
	registry *prometheus.Registry

	inFlight  prometheus.Gauge
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	decisions *prometheus.CounterVec
}

func NewProvider() *Provider {
	p := &Provider{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_decisions_total",
			Help:      "Clinic access decisions by reason and outcome.",
		}, []string{"reason", "allowed"}),
	}
	p.registry.MustRegister(
		p.inFlight, p.requests, p.duration, p.decisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry exposes the underlying registry for extra collectors.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveDecision counts one access decision. Provider satisfies
// access.Observer.
func (p *Provider) ObserveDecision(reason string, allowed bool) {
	p.decisions.WithLabelValues(reason, strconv.FormatBool(allowed)).Inc()
}

// ObservePool publishes database pool gauges read at scrape time.
func (p *Provider) ObservePool(stats func() db.PoolStats) {
	gauge := func(name, help string, read func(db.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(stats()) })
	}
	p.registry.MustRegister(
		gauge("total_connections", "Open database connections.", func(s db.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("idle_connections", "Idle database connections.", func(s db.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("acquired_connections", "Database connections in use.", func(s db.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("max_connections", "Configured connection ceiling.", func(s db.PoolStats) float64 { return float64(s.MaxConns) }),
	)
}

// MetricsMiddleware records request counts and latency per route pattern.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.inFlight.Inc()
			start := time.Now()

			err := next(c)

			p.inFlight.Dec()
			status := c.Response().Status
			if err != nil {
				status, _ = response.Render(err)
			}
			// Route pattern, not the raw path, keeps label cardinality bounded.
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			p.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
