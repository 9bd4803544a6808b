package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/amqp"
	"fintrack/internal/middleware/trace"
)

const namespace = "fintrack"

// Collector owns the service's Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	insights        *prometheus.CounterVec
	rateLimited     prometheus.Counter
	published       *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		insights: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "insight_requests_total",
				Help:      "Insight requests by outcome (ok, cached, fallback, empty)",
			},
			[]string{"outcome"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Transaction events handed to the broker by result",
			},
			[]string{"result"},
		),
	}
	c.registry.MustRegister(
		c.requests,
		c.requestDuration,
		c.insights,
		c.rateLimited,
		c.published,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency. The route label is the
// matched ServeMux pattern so IDs in paths do not explode cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := trace.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		c.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status)).Inc()
		c.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// InsightOutcome counts one insight request.
func (c *Collector) InsightOutcome(outcome string) {
	c.insights.WithLabelValues(outcome).Inc()
}

// RateLimited counts one rejected request.
func (c *Collector) RateLimited(string) {
	c.rateLimited.Inc()
}

// EventPublished counts one publish attempt.
func (c *Collector) EventPublished(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.published.WithLabelValues(result).Inc()
}

// Publisher matches ports.EventPublisher.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error
}

type countingPublisher struct {
	next Publisher
	c    *Collector
}

// InstrumentPublisher counts the results of publishes made through next.
func (c *Collector) InstrumentPublisher(next Publisher) Publisher {
	if next == nil {
		return nil
	}
	return &countingPublisher{next: next, c: c}
}

func (p *countingPublisher) PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error {
	err := p.next.PublishTransactionEvent(ctx, ev)
	p.c.EventPublished(err)
	return err
}
