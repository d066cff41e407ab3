/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the gateway,
tracking HTTP requests, session issuance outcomes, upstream call behavior
(attempts, retries, latency), and circuit breaker transitions.

# Features

- HTTP request metrics (latency, throughput)
- Session issuance metrics by outcome
- Identity cookie metrics
- Upstream attempt/retry counters and call latency
- Circuit breaker transition counters
- Uptime gauge

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.RecordIssuance("success")
	metrics.RecordUpstreamAttempt(0)

	// Time upstream operations
	timer := monitoring.NewTimer(metrics)
	// ... perform call ...
	timer.Stop()

# Metrics Endpoint

Each collector owns its registry; expose it via its handler:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
