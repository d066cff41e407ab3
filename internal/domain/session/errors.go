package session

import (
	"errors"

	"github.com/cobaltriver/chatkit-gateway/internal/chatkit"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/resilience"
	"github.com/cobaltriver/chatkit-gateway/internal/upstream"
)

// Sentinel errors for refusals made before any upstream call. Their text is
// part of the HTTP API contract and is surfaced to clients verbatim.
var (
	// ErrMissingWorkflow is returned when a request names no workflow and
	// no default is configured.
	ErrMissingWorkflow = errors.New("Missing workflow id")

	// ErrMissingAPIKey is returned when the gateway has no upstream API
	// key configured. A configuration fault, not a request fault.
	ErrMissingAPIKey = errors.New("Missing OPENAI_API_KEY environment variable")
)

// Kind buckets issuance failures for status mapping and metrics labels.
type Kind string

const (
	// KindInvalidRequest covers requests the client can fix.
	KindInvalidRequest Kind = "invalid_request"
	// KindConfiguration covers faults in the gateway's own configuration.
	KindConfiguration Kind = "configuration"
	// KindUpstreamRejected covers non-2xx answers from the upstream API.
	KindUpstreamRejected Kind = "upstream_rejected"
	// KindUnavailable covers calls refused by the open circuit breaker.
	KindUnavailable Kind = "unavailable"
	// KindTimeout covers transient network failures after retries.
	KindTimeout Kind = "timeout"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// Classify buckets an issuance failure. Breaker refusals are checked before
// the transient-network test so an open circuit reads as unavailability, not
// a timeout.
func Classify(err error) Kind {
	var apiErr *chatkit.APIError
	switch {
	case errors.Is(err, ErrMissingWorkflow):
		return KindInvalidRequest
	case errors.Is(err, ErrMissingAPIKey):
		return KindConfiguration
	case errors.As(err, &apiErr):
		return KindUpstreamRejected
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return KindUnavailable
	case upstream.RetriableError(err):
		return KindTimeout
	default:
		return KindInternal
	}
}
