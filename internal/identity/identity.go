// Package identity derives a stable per-browser identity from an HTTP
// cookie, minting a fresh one when no usable cookie is present.
package identity

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie that carries the identity between requests.
const CookieName = "chatkit_session_id"

// cookieMaxAge keeps recovered identities stable for 30 days.
const cookieMaxAge = 30 * 24 * 60 * 60

// Options controls how identities are issued.
type Options struct {
	// Disabled turns off persistent identity: every request gets a fresh
	// identity and no cookie is ever written.
	Disabled bool

	// Secure marks issued cookies Secure so browsers only return them
	// over TLS. Set in production-like environments.
	Secure bool
}

// Identity is the resolved per-browser identity for one request.
type Identity struct {
	ID string

	// Fresh reports whether the identity was minted during this
	// resolution rather than recovered from a cookie.
	Fresh bool
}

// Resolver resolves request identities against the configured cookie
// policy.
type Resolver struct {
	opts Options
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// Resolve derives the caller's identity from a raw Cookie header. The
// returned cookie is non-nil only when a fresh identity must be persisted;
// callers set it on the response regardless of how the request turns out.
// Resolving the same header twice yields the same identity.
func (r *Resolver) Resolve(cookieHeader string) (Identity, *http.Cookie) {
	if r.opts.Disabled {
		return Identity{ID: newSessionID(), Fresh: true}, nil
	}

	if id := parseCookies(cookieHeader)[CookieName]; id != "" {
		return Identity{ID: id}, nil
	}

	id := newSessionID()
	return Identity{ID: id, Fresh: true}, r.cookie(id, cookieMaxAge)
}

// Clear returns the cookie that expires the stored identity. It is issued
// unconditionally, whether or not the browser held one.
func (r *Resolver) Clear() *http.Cookie {
	return r.cookie("", -1)
}

func (r *Resolver) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.opts.Secure,
	}
}

// parseCookies splits a Cookie header into name/value pairs. Fragments
// without an "=" or without a name are skipped; stray whitespace is
// trimmed. Malformed input yields fewer pairs, never an error.
func parseCookies(header string) map[string]string {
	pairs := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pairs[name] = strings.TrimSpace(value)
	}
	return pairs
}

// newSessionID prefers a random UUID and falls back to a pseudo-random
// base-36 token when the system entropy source is unavailable.
func newSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return fallbackID()
}

func fallbackID() string {
	return "anon-" + strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatInt(time.Now().UnixMilli(), 36)
}
