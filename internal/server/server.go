package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kodexArg/terminal-singleton/internal/monitoring"
	"github.com/kodexArg/terminal-singleton/internal/providers/terminal"
)

const shutdownTimeout = 5 * time.Second

// Config contains server configuration
type Config struct {
	Addr        string
	Development bool
}

// Server serves health and metrics for the shared terminal
type Server struct {
	router   *gin.Engine
	http     *http.Server
	term     *terminal.Terminal
	provider *terminal.Provider
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewServer creates a new server instance. Nothing listens until Run.
func NewServer(cfg Config, term *terminal.Terminal, provider *terminal.Provider, metrics *monitoring.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	s := &Server{
		router:   router,
		term:     term,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}

	router.GET("/", s.root)
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// root describes the service and its tools
func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, s.provider.Definition())
}

// health reports the registry state and the current session, if any
func (s *Server) health(c *gin.Context) {
	registry := s.term.Registry()

	body := gin.H{
		"status":   "healthy",
		"registry": registry.State().String(),
	}
	if info := s.term.Info(); info != nil {
		body["session"] = info
		if !info.Alive || info.Suspect {
			body["status"] = "degraded"
		}
	}

	c.JSON(http.StatusOK, body)
}

// requestLogger logs each request at debug level
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
