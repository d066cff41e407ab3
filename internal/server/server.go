package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/cobaltriver/chatkit-gateway/internal/api/http"
	"github.com/cobaltriver/chatkit-gateway/internal/api/middleware"
	"github.com/cobaltriver/chatkit-gateway/internal/assets"
	"github.com/cobaltriver/chatkit-gateway/internal/chatkit"
	"github.com/cobaltriver/chatkit-gateway/internal/domain/session"
	"github.com/cobaltriver/chatkit-gateway/internal/identity"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/config"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/logging"
	"github.com/cobaltriver/chatkit-gateway/internal/infrastructure/monitoring"
	"github.com/cobaltriver/chatkit-gateway/internal/upstream"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	sessions *session.Service
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// New creates a server instance from configuration.
func New(cfg *config.Config) (*Server, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	logger.Info("Initializing ChatKit gateway",
		zap.String("port", cfg.Server.Port),
		zap.String("upstream", cfg.ChatKit.BaseURL),
	)

	metrics := monitoring.NewMetrics()

	transport := upstream.New(upstream.Config{
		RetryMax:       cfg.Retry.Max,
		BaseDelay:      cfg.Retry.BaseDelay,
		MaxDelay:       cfg.Retry.MaxDelay,
		Jitter:         cfg.Retry.Jitter,
		ConnectTimeout: cfg.Transport.ConnectTimeout,
		HeaderTimeout:  cfg.Transport.HeaderTimeout,
		BodyTimeout:    cfg.Transport.BodyTimeout,
	}, logger, metrics)

	issuer := chatkit.New(chatkit.Config{
		BaseURL: cfg.ChatKit.BaseURL,
		APIKey:  cfg.ChatKit.APIKey,
	}, transport)

	sessions := session.NewService(session.Config{
		APIKey:          cfg.ChatKit.APIKey,
		DefaultWorkflow: cfg.ChatKit.WorkflowID,
	}, issuer, logger, metrics)

	resolver := identity.NewResolver(identity.Options{
		Disabled: cfg.Cookie.Disabled,
		Secure:   cfg.Cookie.Secure || logging.IsProduction(),
	})

	// The asset index is optional: a gateway deployed as a bare API keeps
	// running without the widget bundle on disk.
	var assetIndex *assets.Index
	if cfg.Assets.Dir != "" {
		idx, err := assets.Build(cfg.Assets.Dir, cfg.Assets.Patterns, logger)
		if err != nil {
			logger.Warn("Asset serving disabled",
				zap.String("dir", cfg.Assets.Dir),
				zap.Error(err),
			)
		} else {
			assetIndex = idx
		}
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(sessions, resolver, assetIndex, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/healthz", handlers.Health)

	// Session endpoints
	router.POST("/api/create-session", handlers.CreateSession)
	router.GET("/api/create-session", handlers.CreateSessionMethodNotAllowed)
	router.POST("/api/clear-session", handlers.ClearSession)
	router.GET("/api/clear-session", handlers.ClearSession)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Widget assets
	if assetIndex != nil {
		assetHandler := gzhttp.GzipHandler(http.StripPrefix("/assets", assetIndex))
		router.GET("/assets/*filepath", gin.WrapH(assetHandler))
		router.HEAD("/assets/*filepath", gin.WrapH(assetHandler))

		// Browsers register the proxy's service worker from the site
		// root; served from /assets/ its scope could not cover the page.
		if assetIndex.HasServiceWorker() {
			router.GET(assets.ServiceWorkerPath, gin.WrapH(gzhttp.GzipHandler(assetIndex)))
		}
	}

	logger.Info("Server initialized")

	return &Server{
		router: router,
		httpSrv: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops. A shutdown via
// Shutdown is not an error.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpSrv.Addr))

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting new connections, drains in-flight requests
// until ctx expires, and syncs the logger.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.httpSrv.Shutdown(ctx)
	s.logger.Sync()
	return err
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
