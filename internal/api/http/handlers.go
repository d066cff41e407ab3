package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cobaltriver/chatkit-gateway/internal/assets"
	"github.com/cobaltriver/chatkit-gateway/internal/domain/session"
	"github.com/cobaltriver/chatkit-gateway/internal/identity"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/logging"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/monitoring"
)

// Version is reported by the service banner.
const Version = "0.1.0"

// Handlers contains all HTTP handlers.
type Handlers struct {
	sessions *session.Service
	resolver *identity.Resolver
	assets   *assets.Index
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewHandlers creates a new handler set. The asset index, metrics, and
// logger may be nil.
func NewHandlers(
	sessions *session.Service,
	resolver *identity.Resolver,
	assetIndex *assets.Index,
	metrics *monitoring.Metrics,
	log *logging.Logger,
) *Handlers {
	if log == nil {
		log = logging.Nop()
	}
	return &Handlers{
		sessions: sessions,
		resolver: resolver,
		assets:   assetIndex,
		metrics:  metrics,
		log:      log.Named("api"),
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "chatkit-gateway",
		"version": Version,
	})
}

// Health handles the detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	health := h.sessions.Health()
	if h.assets != nil {
		health["assets_indexed"] = h.assets.Len()
	}
	c.JSON(http.StatusOK, health)
}
