/*
Package upstream provides the retrying HTTP client used to reach the
ChatKit API.

# Overview

Every upstream call is made through hashicorp/go-retryablehttp configured
with the gateway's retry policy: transient failures (408/425/429/5xx
responses, network faults, timeouts) are retried with exponential backoff
and jitter, and the final response or error is surfaced to the caller
unchanged. Response bodies of failed attempts are drained so connections
can be reused.

A circuit breaker wraps the whole retried call. The breaker counts
transport-level outcomes only: an HTTP error status still proves the
upstream is reachable, so it does not open the circuit.

# Retry schedule

The wait before retry n (1-based) is base * 2^(n-1), scaled by a uniform
jitter factor in [0.7, 1.3] and floored at 100ms when jitter is enabled,
and clamped to the configured maximum.

# Usage

	client := upstream.New(upstream.DefaultConfig(), logger, metrics)
	resp, err := client.Do(ctx, http.MethodPost, url, headers, body)
*/
package upstream
