// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lexdoc",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route template and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lexdoc",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lexdoc",
		Name:      "llm_requests_total",
		Help:      "LLM calls by operation and outcome (ok, retry, error).",
	}, []string{"operation", "outcome"})

	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lexdoc",
		Name:      "llm_request_duration_seconds",
		Help:      "LLM call latency by operation, retries included.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"operation"})

	FilingsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lexdoc",
		Name:      "filings_generated_total",
		Help:      "Filings rendered by template, format and whether the fallback draft was used.",
	}, []string{"template", "format", "fallback"})

	PaymentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lexdoc",
		Name:      "payment_webhook_events_total",
		Help:      "Stripe webhook events by type and handling result.",
	}, []string{"type", "result"})
)
