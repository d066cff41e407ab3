// Package server wires the gateway together.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (request ids, metrics, CORS, rate limiting, recovery)
//   - Retrying upstream ChatKit client behind a circuit breaker
//   - Session issuance service and identity cookie resolver
//   - Static widget asset index with gzip
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger (production or development)
//  3. Build the upstream client and session service
//  4. Index widget assets when a bundle is present
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
