// Package metrics exposes Prometheus instrumentation for the invoice
// pipeline. Init must be called once before any observation; all
// observation helpers are nil-safe so uninstrumented binaries and
// tests work without registration.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "invoicegen_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultDropped = "dropped"
)

var (
	registerOnce sync.Once

	generateTotal   *prometheus.CounterVec
	generateLatency *prometheus.HistogramVec

	renderLatency *prometheus.HistogramVec

	deliveryTotal   *prometheus.CounterVec
	deliveryLatency *prometheus.HistogramVec

	auditTotal *prometheus.CounterVec
)

// Init registers the pipeline metrics with the default registry
func Init() {
	registerOnce.Do(func() {
		generateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generate_total",
				Help: "Total invoice generation requests by result",
			},
			[]string{"result"},
		)
		generateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "generate_latency_seconds",
				Help:    "End-to-end invoice generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		renderLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "render_latency_seconds",
				Help:    "PDF render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		deliveryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "delivery_total",
				Help: "Total delivery attempts by strategy and result",
			},
			[]string{"strategy", "result"},
		)
		deliveryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "delivery_latency_seconds",
				Help:    "Delivery latency in seconds by strategy",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		)

		auditTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "audit_total",
				Help: "Total audit rows by stream and result",
			},
			[]string{"stream", "result"},
		)

		prometheus.MustRegister(
			generateTotal,
			generateLatency,
			renderLatency,
			deliveryTotal,
			deliveryLatency,
			auditTotal,
		)
	})
}

// ObserveGenerate records one completed generation request
func ObserveGenerate(result string, duration time.Duration) {
	if generateTotal == nil {
		return
	}
	generateTotal.WithLabelValues(result).Inc()
	generateLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveRender records one PDF render
func ObserveRender(result string, duration time.Duration) {
	if renderLatency == nil {
		return
	}
	renderLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveDelivery records one delivery attempt
func ObserveDelivery(strategy, result string, duration time.Duration) {
	if deliveryTotal == nil {
		return
	}
	deliveryTotal.WithLabelValues(strategy, result).Inc()
	deliveryLatency.WithLabelValues(strategy).Observe(duration.Seconds())
}

// IncAudit records one audit row outcome
func IncAudit(stream, result string) {
	if auditTotal == nil {
		return
	}
	auditTotal.WithLabelValues(stream, result).Inc()
}
