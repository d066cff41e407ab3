package upstream

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/logging"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/monitoring"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/resilience"
)

// breakerFailureThreshold is the number of consecutive fully-failed calls
// (each one an exhausted retry schedule) before the circuit opens.
const breakerFailureThreshold = 3

// Config defines upstream transport and retry behavior.
type Config struct {
	// RetryMax is the number of retries after the initial attempt.
	// Zero disables retries.
	RetryMax  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    bool

	ConnectTimeout time.Duration
	HeaderTimeout  time.Duration
	BodyTimeout    time.Duration
}

// DefaultConfig returns production defaults: four total attempts with a
// 500ms backoff base and jitter.
func DefaultConfig() Config {
	return Config{
		RetryMax:       3,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       30 * time.Second,
		Jitter:         true,
		ConnectTimeout: 5 * time.Second,
		HeaderTimeout:  15 * time.Second,
		BodyTimeout:    30 * time.Second,
	}
}

// Client is the retrying HTTP client for the upstream ChatKit API.
type Client struct {
	retry   *retryablehttp.Client
	breaker *resilience.Breaker
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates an upstream client with the given retry policy.
func New(cfg Config, logger *logging.Logger, metrics *monitoring.Metrics) *Client {
	if logger == nil {
		logger = logging.Nop()
	}

	c := &Client{
		logger:  logger.Named("upstream"),
		metrics: metrics,
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.BaseDelay
	rc.RetryWaitMax = cfg.MaxDelay
	rc.HTTPClient = &http.Client{
		Transport: newTransport(cfg),
		Timeout:   cfg.BodyTimeout,
	}
	rc.Logger = &retryLogger{sugar: c.logger.Sugar()}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return ShouldRetry(resp, err), nil
	}
	rc.Backoff = func(min, max time.Duration, attempt int, _ *http.Response) time.Duration {
		return Backoff(min, max, attempt, cfg.Jitter)
	}
	// Surface the last response or error unchanged instead of a wrapped
	// "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if c.metrics != nil {
			c.metrics.RecordUpstreamAttempt(attempt)
		}
		if attempt > 0 {
			c.logger.Info("retrying upstream request",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
			)
		}
	}
	c.retry = rc

	c.breaker = resilience.New("chatkit", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.TripAfterConsecutive(breakerFailureThreshold),
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.RecordBreakerTransition(from.String(), to.String())
			}
		},
	})

	return c
}

// Do performs an HTTP request against the upstream, retrying transient
// failures per the configured policy. The final response or error is
// returned unchanged; on success the caller owns the response body.
//
// Returns resilience.ErrCircuitOpen without attempting the call when the
// breaker is open.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	timer := monitoring.NewTimer(c.metrics)
	result, err := c.breaker.Execute(func() (any, error) {
		return c.retry.Do(req)
	})
	timer.Stop()

	resp, _ := result.(*http.Response)
	return resp, err
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// newTransport builds a transport with per-phase timeouts: dial and TLS
// handshake bounded by the connect timeout, first response byte by the
// header timeout. Total time including the body is bounded by the
// http.Client timeout.
func newTransport(cfg Config) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.HeaderTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// retryLogger adapts zap to retryablehttp's leveled logger.
type retryLogger struct {
	sugar *zap.SugaredLogger
}

func (l *retryLogger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}
