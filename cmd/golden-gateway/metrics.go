package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// gatewayMetrics owns the Prometheus registry and every collector the gateway
// exports. Each instance gets a fresh registry so tests stay isolated.
type gatewayMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	deliveryLatency *prometheus.HistogramVec
	queueDepth      prometheus.Gauge
	loadSimulation  prometheus.Gauge
}

func newGatewayMetrics() *gatewayMetrics {
	m := &gatewayMetrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 13), // ~10ms to ~40s
			},
			[]string{"method", "path", "status"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_errors_total",
				Help: "Total number of HTTP error responses",
			},
			[]string{"method", "path", "status", "error_type"},
		),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_messages_sent_total",
				Help: "Total number of simulated message sends by outcome",
			},
			[]string{"country", "status", "platform"},
		),
		deliveryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_delivery_latency_seconds",
				Help:    "Simulated delivery latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.025, 2, 9), // 25ms to ~6.4s
			},
			[]string{"platform"},
		),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_queue_depth",
			Help: "Current depth of the simulated delivery retry queue",
		}),
		loadSimulation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_load_simulation_active",
			Help: "Whether chaos load simulation is active (0 or 1)",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.messagesSent,
		m.deliveryLatency,
		m.queueDepth,
		m.loadSimulation,
	)

	// Process rss and Go heap stats are sampled by these collectors at
	// scrape time, so /metrics always reflects current memory usage.
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.registry.MustRegister(collectors.NewGoCollector())

	return m
}

// registerSaturationFuncs wires the scrape-time gauges that need live gateway
// state: in-flight requests and a synthetic load average derived from
// in-flight count, queue depth and the chaos flag.
func (m *gatewayMetrics) registerSaturationFuncs(inflight func() float64, loadAverage func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gateway_inflight_requests",
		Help: "Current number of requests being processed",
	}, inflight))
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gateway_load_average",
		Help: "Synthetic load average sampled at scrape time",
	}, loadAverage))
}
