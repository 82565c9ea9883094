package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/glasspane/termbridge/internal/config"
	httpapi "github.com/glasspane/termbridge/internal/http"
	"github.com/glasspane/termbridge/internal/middleware"
	"github.com/glasspane/termbridge/internal/monitoring"
	"github.com/glasspane/termbridge/internal/session"
	"github.com/glasspane/termbridge/internal/ws"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router   *gin.Engine
	sessions *session.Manager
	logger   *zap.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	httpSrv  *http.Server
}

// NewServer creates a server instance from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := monitoring.NewMetrics()

	sessions := session.NewManager(session.EngineOptions{
		MaxQueueLen:   cfg.Engine.MaxQueueLen,
		FlushBudget:   cfg.Engine.FlushBudget,
		FrameInterval: cfg.Engine.FrameInterval,
	}, logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(middleware.Requests(logger, metrics))

	handlers := httpapi.NewHandlers(sessions)
	wsHandler := ws.NewHandler(sessions, logger, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/sessions", handlers.CreateSession)
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.GET("/sessions/:id/output", handlers.ReadOutput)
	router.POST("/sessions/:id/input", handlers.WriteInput)
	router.POST("/sessions/:id/resize", handlers.Resize)
	router.POST("/sessions/:id/focus", handlers.Focus)
	router.DELETE("/sessions/:id", handlers.KillSession)

	router.GET("/sessions/:id/stream", wsHandler.HandleConnection)

	logger.Info("server initialized")

	return &Server{
		router:   router,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}
}

// Sessions exposes the session manager, mainly for tests.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("starting HTTP server", zap.String("addr", addr))

	uptimeDone := make(chan struct{})
	defer close(uptimeDone)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.metrics.UpdateUptime()
			case <-uptimeDone:
				return
			}
		}
	}()

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and kills all sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.sessions.Shutdown()
	s.logger.Sync()
	return err
}
