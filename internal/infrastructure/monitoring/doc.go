/*
Package monitoring provides Prometheus metrics collection for pkgmap.

The Metrics struct is both the HTTP-layer collector and the tracker's
guardrail sink: the uid map reports byte usage, retained record counts, and
eviction drops through it. All calls are best-effort side channels; nothing
in the tracker's correctness depends on them.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Inject into the tracker as its guardrail
	tracker := uidmap.NewTracker(codec, maxBytes).WithMetrics(metrics)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
