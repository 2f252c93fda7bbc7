package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 进程内所有指标，注册到传入的 Registerer，测试时用独立 Registry
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	RealtimeSessions  prometheus.Gauge
	RealtimeDelivered prometheus.Counter
	RealtimeDropped   *prometheus.CounterVec
	PublishErrors     *prometheus.CounterVec

	RegistrationTransitions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_http_requests_total",
				Help: "Total HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RealtimeSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "campus_realtime_sessions",
				Help: "Current number of realtime sessions",
			},
		),
		RealtimeDelivered: f.NewCounter(
			prometheus.CounterOpts{
				Name: "campus_realtime_delivered_total",
				Help: "Realtime messages handed to a session",
			},
		),
		RealtimeDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_realtime_dropped_total",
				Help: "Realtime messages dropped",
			},
			[]string{"reason"},
		),
		PublishErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_realtime_publish_errors_total",
				Help: "Publisher failures by publisher name",
			},
			[]string{"publisher"},
		),
		RegistrationTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_registration_transitions_total",
				Help: "Registration review outcomes",
			},
			[]string{"status"},
		),
	}
}

// Nop 不对外暴露的指标集合，用于测试和未启用指标的场景
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
