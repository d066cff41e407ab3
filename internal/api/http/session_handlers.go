package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cobaltriver/chatkit-gateway/internal/api/middleware"
	"github.com/cobaltriver/chatkit-gateway/internal/chatkit"
	"github.com/cobaltriver/chatkit-gateway/internal/domain/session"
)

// createSessionRequest mirrors the widget's issuance body. Every field is
// optional; a body that does not parse is treated as empty.
type createSessionRequest struct {
	Workflow struct {
		ID string `json:"id"`
	} `json:"workflow"`
	WorkflowID    string `json:"workflowId"`
	Configuration struct {
		FileUpload struct {
			Enabled bool `json:"enabled"`
		} `json:"file_upload"`
	} `json:"chatkit_configuration"`
}

// CreateSession mints a ChatKit session credential for the caller.
func (h *Handlers) CreateSession(c *gin.Context) {
	// Identity comes first: the cookie must reach the browser on every
	// response path, including failures.
	ident, cookie := h.resolver.Resolve(c.GetHeader("Cookie"))
	if cookie != nil {
		http.SetCookie(c.Writer, cookie)
		if h.metrics != nil {
			h.metrics.RecordCookieIssued()
		}
	}

	var body createSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		body = createSessionRequest{}
	}

	resp, err := h.sessions.Issue(c.Request.Context(), session.Request{
		WorkflowID:       body.Workflow.ID,
		LegacyWorkflowID: body.WorkflowID,
		User:             ident.ID,
		FileUpload:       body.Configuration.FileUpload.Enabled,
	})
	if err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateSessionMethodNotAllowed rejects reads of the issuance endpoint.
func (h *Handlers) CreateSessionMethodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodPost)
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// ClearSession drops the identity cookie. It answers the same way whether
// or not the browser held one.
func (h *Handlers) ClearSession(c *gin.Context) {
	http.SetCookie(c.Writer, h.resolver.Clear())
	if h.metrics != nil {
		h.metrics.RecordSessionCleared()
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// writeSessionError maps a classified issuance failure onto the endpoint's
// error contract.
func (h *Handlers) writeSessionError(c *gin.Context, err error) {
	switch session.Classify(err) {
	case session.KindInvalidRequest:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case session.KindConfiguration:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

	case session.KindUpstreamRejected:
		// Classify guarantees the assertion holds.
		var apiErr *chatkit.APIError
		errors.As(err, &apiErr)

		// Upstream statuses pass through; anything below the error range
		// is normalized so a confused upstream cannot make a failure
		// look like success.
		status := apiErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error":   apiErr.Message,
			"details": apiErr.Details(),
		})

	case session.KindUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ChatKit session service is temporarily unavailable"})

	case session.KindTimeout:
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "ChatKit session request timed out"})

	default:
		h.log.Error("unexpected issuance failure",
			zap.String("request_id", middleware.RequestIDFromContext(c)),
			zap.Error(err),
		)
		msg := err.Error()
		if msg == "" {
			msg = chatkit.FallbackMessage
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
