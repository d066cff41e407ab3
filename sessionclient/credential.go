package sessionclient

import "time"

const (
	// DefaultTTL is assumed for adopted secrets whose expiry was never
	// tracked by this client.
	DefaultTTL = 15 * time.Minute

	// FreshnessMargin is how much remaining lifetime a cached credential
	// needs before it is returned without a refresh.
	FreshnessMargin = 60 * time.Second
)

// Credential is an issued ChatKit session secret with its absolute expiry.
type Credential struct {
	Secret    string
	ExpiresAt time.Time
}

// Fresh reports whether the credential still has more than
// FreshnessMargin of lifetime left at the given instant.
func (c Credential) Fresh(now time.Time) bool {
	return c.Secret != "" && c.ExpiresAt.Sub(now) > FreshnessMargin
}

// normalizeExpiry converts the gateway's expires_after value to an
// absolute time. The field is nominally seconds from now; magnitudes
// that can only be epoch milliseconds or epoch seconds are taken as
// absolute timestamps instead.
func normalizeExpiry(v float64, now time.Time) time.Time {
	switch {
	case v > 1e12:
		return time.UnixMilli(int64(v))
	case v > 1e9:
		return time.Unix(int64(v), 0)
	default:
		return now.Add(time.Duration(v * float64(time.Second)))
	}
}
