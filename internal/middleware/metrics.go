package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interndesk_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// LifecycleTransitions counts request lifecycle transitions by outcome.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interndesk_lifecycle_transitions_total",
		Help: "Total lifecycle transitions by transition name and outcome",
	}, []string{"transition", "outcome"})

	// LetterRenderLatency records offer letter render latency.
	LetterRenderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interndesk_letter_render_latency_seconds",
		Help:    "Offer letter render latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ArtifactBytesWritten counts bytes written to the artifact store by kind.
	ArtifactBytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interndesk_artifact_bytes_written_total",
		Help: "Total bytes written to the artifact store by artifact kind",
	}, []string{"kind"})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the HTTP metrics collection handler.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
