package upstream

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"
)

const (
	// Jittered delays are floored so a low draw against a small base
	// cannot produce a near-zero wait.
	minJitteredDelay = 100 * time.Millisecond

	jitterLow  = 0.7
	jitterHigh = 1.3
)

// RetriableStatus reports whether an upstream HTTP status is worth
// retrying: request timeout (408), too early (425), rate limiting (429),
// and all server-side failures.
func RetriableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooEarly ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

// RetriableError reports whether a transport-level error is transient.
// Caller aborts are terminal. Timeouts of any flavor and low-level network
// faults (dial, DNS, reset connections) are retriable; anything else, such
// as malformed URLs or TLS validation failures, is not.
func RetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// Some transports wrap timeouts in plain errors; fall back to a
	// substring scan over the unwrap chain.
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		if strings.Contains(strings.ToLower(cause.Error()), "timeout") {
			return true
		}
	}

	return false
}

// ShouldRetry decides whether a completed attempt should be retried based
// on its response or error.
func ShouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return RetriableError(err)
	}
	if resp == nil {
		return false
	}
	return RetriableStatus(resp.StatusCode)
}

// Backoff computes the wait before the next attempt. attempt is zero-based:
// attempt 0 is the wait after the first failed try, and the delay doubles
// from base each time. With jitter enabled the delay is scaled by a uniform
// factor in [jitterLow, jitterHigh] and floored at minJitteredDelay. The
// result is clamped to max when max is positive.
func Backoff(base, max time.Duration, attempt int, jitter bool) time.Duration {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if attempt > 16 {
		// Cap the shift; max clamps the result anyway.
		attempt = 16
	}

	delay := base << uint(attempt)

	if jitter {
		factor := jitterLow + (jitterHigh-jitterLow)*rand.Float64()
		delay = time.Duration(float64(delay) * factor)
		if delay < minJitteredDelay {
			delay = minJitteredDelay
		}
	}

	if max > 0 && delay > max {
		delay = max
	}
	return delay
}
