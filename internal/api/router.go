package api

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemetry-pipeline/internal/api/handler"
	"telemetry-pipeline/pkg/router"
)

// RegisterRoutes mounts the audit API on the router.
func RegisterRoutes(r *router.Router, audit *handler.Audit) {
	r.GET("/api/v1/readings/stats", audit.Stats)
	r.GET("/api/v1/readings", audit.ListReadings)
	r.GET("/api/v1/deadletters", audit.ListDeadLetters)
	r.GET("/healthz", audit.Health)
	r.GET("/metrics", promhttp.Handler().ServeHTTP)
}
