package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cobaltriver/chatkit-gateway/internal/chatkit"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/logging"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/monitoring"
)

const outcomeSuccess = "success"

// Issuer mints session credentials against the upstream API.
type Issuer interface {
	CreateSession(ctx context.Context, req chatkit.SessionRequest) (*chatkit.SessionResponse, error)
}

// Config holds the issuance policy fixed at startup.
type Config struct {
	// APIKey authenticates upstream calls. Issuance is refused before any
	// upstream call when it is empty.
	APIKey string

	// DefaultWorkflow is used when a request names no workflow.
	DefaultWorkflow string
}

// Service orchestrates session issuance.
type Service struct {
	issuer  Issuer
	cfg     Config
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewService creates a session service. Logger and metrics may be nil.
func NewService(cfg Config, issuer Issuer, log *logging.Logger, metrics *monitoring.Metrics) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		issuer:  issuer,
		cfg:     cfg,
		log:     log.Named("session"),
		metrics: metrics,
	}
}

// Request carries the client-supplied fields of one issuance call. The two
// workflow fields are kept separate so precedence stays visible where the
// request is built.
type Request struct {
	// WorkflowID is the nested workflow.id field of the request body.
	WorkflowID string

	// LegacyWorkflowID is the flat workflowId field, consulted only when
	// WorkflowID is empty.
	LegacyWorkflowID string

	// User is the resolved per-browser identity.
	User string

	// FileUpload enables uploads for the minted session.
	FileUpload bool
}

// Issue resolves the workflow for the request and mints a credential
// through the upstream API. Failures carry enough context for Classify to
// bucket them.
func (s *Service) Issue(ctx context.Context, req Request) (*chatkit.SessionResponse, error) {
	start := time.Now()

	resp, err := s.issue(ctx, req)
	if err != nil {
		kind := Classify(err)
		s.record(string(kind))
		s.log.Warn("session issuance failed",
			zap.String("kind", string(kind)),
			zap.String("user", req.User),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	s.record(outcomeSuccess)
	s.log.Info("session issued",
		zap.String("user", req.User),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (s *Service) issue(ctx context.Context, req Request) (*chatkit.SessionResponse, error) {
	workflow := s.resolveWorkflow(req)
	if workflow == "" {
		return nil, ErrMissingWorkflow
	}
	if s.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	upstreamReq := chatkit.SessionRequest{User: req.User}
	upstreamReq.Workflow.ID = workflow
	upstreamReq.Configuration.FileUpload.Enabled = req.FileUpload

	return s.issuer.CreateSession(ctx, upstreamReq)
}

// resolveWorkflow applies the precedence: nested workflow.id, flat
// workflowId, configured default.
func (s *Service) resolveWorkflow(req Request) string {
	if req.WorkflowID != "" {
		return req.WorkflowID
	}
	if req.LegacyWorkflowID != "" {
		return req.LegacyWorkflowID
	}
	return s.cfg.DefaultWorkflow
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordIssuance(outcome)
	}
}

// Health reports the service's view of upstream health: whether the
// gateway is configured to issue at all, and the breaker state when the
// issuer exposes one. An open breaker degrades the reported status.
func (s *Service) Health() map[string]any {
	health := map[string]any{
		"status":              "healthy",
		"upstream_configured": s.cfg.APIKey != "",
		"workflow_configured": s.cfg.DefaultWorkflow != "",
	}

	if reporter, ok := s.issuer.(interface{ BreakerState() string }); ok {
		if state := reporter.BreakerState(); state != "" {
			health["upstream_breaker"] = state
			if state == "open" {
				health["status"] = "degraded"
			}
		}
	}

	return health
}
