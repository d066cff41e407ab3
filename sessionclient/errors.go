package sessionclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// GatewayError is a non-2xx answer from the gateway, carrying the
// message from its error payload.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("sessionclient: gateway returned %d: %s", e.StatusCode, e.Message)
}

// Statuses the gateway answers with when the failure is transient: its
// own timeout and unavailability responses plus upstream throttling
// passed through.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

var retryableKeywords = []string{
	"timeout",
	"timed out",
	"network",
	"fetch",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
}

// IsRetryable reports whether an error from GetSecret is worth offering
// a manual retry for. Configuration and validation failures are not
// retryable; timeouts, throttling, and network-level failures are. A 500
// is only retryable when its message reads as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var gw *GatewayError
	if errors.As(err, &gw) && retryableStatus(gw.StatusCode) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, kw := range retryableKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
