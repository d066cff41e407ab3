package sessionclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

const (
	createSessionPath = "/api/create-session"
	clearSessionPath  = "/api/clear-session"

	// One cached credential per client, so one flight key suffices.
	issuanceKey = "create-session"

	defaultTimeout = 30 * time.Second
)

// Options configures a Client.
type Options struct {
	// BaseURL is the gateway's address, e.g. "http://localhost:8090".
	BaseURL string

	// WorkflowID optionally overrides the gateway's default workflow.
	WorkflowID string

	// FileUpload requests upload-enabled sessions.
	FileUpload bool

	// Timeout bounds each gateway call. Zero means 30 seconds.
	Timeout time.Duration
}

// Client caches one session credential and deduplicates concurrent
// refreshes. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	opts   Options
	flight singleflight.Group

	mu   sync.Mutex
	cred *Credential

	now func() time.Time
}

// New creates a client for the gateway at opts.BaseURL.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http: httpClient,
		opts: opts,
		now:  time.Now,
	}
}

// GetSecret returns a session secret for mounting the widget.
//
// A non-empty existing secret is adopted and returned as-is: a caller
// still holding one is trusted to hold a live one. Otherwise the cached
// credential is returned while it has more than FreshnessMargin of
// lifetime left, and a new session is requested from the gateway when it
// does not. Concurrent callers needing a refresh share a single gateway
// request; its failure reaches every waiter and the next call starts
// over cleanly.
func (c *Client) GetSecret(ctx context.Context, existing string) (string, error) {
	if existing != "" {
		return c.adopt(existing), nil
	}

	c.mu.Lock()
	if c.cred != nil && c.cred.Fresh(c.now()) {
		secret := c.cred.Secret
		c.mu.Unlock()
		return secret, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(issuanceKey, func() (any, error) {
		// A caller that raced a just-finished flight re-checks here
		// instead of issuing a second session.
		c.mu.Lock()
		if c.cred != nil && c.cred.Fresh(c.now()) {
			secret := c.cred.Secret
			c.mu.Unlock()
			return secret, nil
		}
		c.mu.Unlock()

		cred, err := c.createSession(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cred = cred
		c.mu.Unlock()
		return cred.Secret, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate discards the cached credential. The next GetSecret call
// requests a fresh session.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cred = nil
	c.mu.Unlock()
}

// Cached returns the currently cached credential, if any.
func (c *Client) Cached() (Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cred == nil {
		return Credential{}, false
	}
	return *c.cred, true
}

// ClearSession discards the cached credential and asks the gateway to
// expire the identity cookie, so the next session starts a new identity.
func (c *Client) ClearSession(ctx context.Context) error {
	c.Invalidate()

	resp, err := c.http.R().
		SetContext(ctx).
		Post(clearSessionPath)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if resp.IsError() {
		return &GatewayError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	return nil
}

// adopt caches a caller-held secret. An expiry already tracked for the
// same secret is kept; an unseen secret is assumed to live for
// DefaultTTL from now.
func (c *Client) adopt(secret string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred == nil || c.cred.Secret != secret {
		c.cred = &Credential{Secret: secret, ExpiresAt: c.now().Add(DefaultTTL)}
	}
	return secret
}

type sessionResponse struct {
	ClientSecret string  `json:"client_secret"`
	ExpiresAfter float64 `json:"expires_after"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) createSession(ctx context.Context) (*Credential, error) {
	payload := map[string]any{
		"chatkit_configuration": map[string]any{
			"file_upload": map[string]any{"enabled": c.opts.FileUpload},
		},
	}
	if c.opts.WorkflowID != "" {
		payload["workflow"] = map[string]any{"id": c.opts.WorkflowID}
	}

	var (
		success sessionResponse
		failure errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&success).
		SetError(&failure).
		Post(createSessionPath)
	if err != nil {
		return nil, fmt.Errorf("session request: %w", err)
	}
	if resp.IsError() {
		msg := failure.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode(), Message: msg}
	}
	if success.ClientSecret == "" {
		return nil, errors.New("sessionclient: gateway response missing client_secret")
	}

	return &Credential{
		Secret:    success.ClientSecret,
		ExpiresAt: normalizeExpiry(success.ExpiresAfter, c.now()),
	}, nil
}
