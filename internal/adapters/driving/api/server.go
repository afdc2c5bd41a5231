package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/custodia-labs/regbot/internal/adapters/driving/sessions"
	"github.com/custodia-labs/regbot/internal/logger"
)

const (
	// ServiceName names the server in spans.
	ServiceName = "regbot"

	// shutdownTimeout bounds the graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// Config holds HTTP server options.
type Config struct {
	// AllowOrigins lists the CORS origins. Empty allows every origin.
	AllowOrigins []string
}

// Server serves the question-answering API over HTTP.
type Server struct {
	ports  *Ports
	router *gin.Engine
}

// NewServer creates the server and registers its routes.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if ports.Sessions == nil {
		ports.Sessions = sessions.NewRegistry(0)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(otelgin.Middleware(ServiceName))
	router.Use(requestLogger())
	router.Use(cors.New(corsConfig(cfg)))

	s := &Server{ports: ports, router: router}
	s.registerRoutes()
	return s, nil
}

func corsConfig(cfg Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	c.ExposeHeaders = []string{RequestIDHeader}
	return c
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/index", s.handleIndex)
	api.GET("/examples", s.handleExamples)
	api.POST("/ask", s.handleAsk)
	api.GET("/sessions/:id", s.handleSession)
	api.DELETE("/cache", s.handleClearCache)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}
