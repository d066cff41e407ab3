/*
Package resilience provides a circuit breaker for the upstream ChatKit API.

# Overview

This package implements the circuit breaker pattern so that a persistently
failing upstream is cut off quickly instead of every request burning through
its full retry schedule.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Generation-based counting (stale in-flight results are discarded)
- State change callbacks for logging and metrics
- Thread-safe operations

# Usage

	// Create a circuit breaker
	breaker := resilience.New("chatkit", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.TripAfterConsecutive(6),
		OnStateChange: func(name string, from, to resilience.State) {
			log.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})

	// Execute request through breaker
	result, err := breaker.Execute(func() (any, error) {
		return client.Call()
	})

# States

- Closed: Normal operation, requests pass through
- Open: Upstream unavailable, requests fail immediately with ErrCircuitOpen
- Half-Open: Probing recovery, a small budget of requests allowed

# Pattern

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
