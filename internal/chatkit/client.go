package chatkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	sessionsPath = "/v1/chatkit/sessions"
	betaHeader   = "chatkit_beta=v1"
)

// Doer abstracts the transport so tests can fake the upstream.
type Doer interface {
	Do(ctx context.Context, method, url string, header http.Header, body []byte) (*http.Response, error)
}

// Config holds ChatKit API client configuration.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client calls the ChatKit sessions API over the given transport.
type Client struct {
	cfg       Config
	transport Doer
}

// New creates a ChatKit API client.
func New(cfg Config, transport Doer) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, transport: transport}
}

// CreateSession mints a new ChatKit session for the given user identity.
// Rejections are returned as *APIError; transport failures are returned
// unchanged so callers can classify them.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	header.Set("OpenAI-Beta", betaHeader)

	resp, err := c.transport.Do(ctx, http.MethodPost, c.cfg.BaseURL+sessionsPath, header, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read session response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewAPIError(resp.StatusCode, body)
	}

	var session SessionResponse
	if err := sonic.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if session.ClientSecret == "" {
		return nil, errors.New("session response missing client_secret")
	}

	return &session, nil
}

// BreakerState reports the transport's breaker state when the transport
// exposes one.
func (c *Client) BreakerState() string {
	if reporter, ok := c.transport.(interface{ BreakerState() string }); ok {
		return reporter.BreakerState()
	}
	return ""
}
