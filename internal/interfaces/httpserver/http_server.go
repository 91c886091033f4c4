package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/app"
	"github.com/janhq/media-janitor/internal/infrastructure/database"
	"github.com/janhq/media-janitor/internal/infrastructure/storage"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver/handlers"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver/middlewares"
	v1 "github.com/janhq/media-janitor/internal/interfaces/httpserver/routes/v1"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	container *app.Container
	engine    *gin.Engine
	log       zerolog.Logger
}

// New constructs the HTTP server with default middleware and routes.
func New(container *app.Container, log zerolog.Logger) *HttpServer {
	cfg := container.Config
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.Tracing(cfg.ServiceName),
		middlewares.Logging(log.With().Str("component", "http").Logger()),
	)

	provider := handlers.NewProvider(container, log)
	s := &HttpServer{container: container, engine: engine, log: log}
	s.registerCoreRoutes(provider)
	v1.NewRoutes(provider).Register(engine.Group("/"))
	return s
}

// Handler exposes the engine, mainly for tests.
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	cfg := s.container.Config
	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", cfg.Addr()).Msg("media-janitor HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *HttpServer) registerCoreRoutes(provider *handlers.Provider) {
	cfg := s.container.Config
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": cfg.ServiceName, "status": "ok"})
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/readyz", s.ready)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Owned references resolve to the blob behind them.
	if prefix := strings.TrimSuffix(cfg.ReferencePrefix, "/"); strings.HasPrefix(prefix, "/") && prefix != "/v1" {
		s.engine.GET(prefix+"/*key", provider.Media.Serve)
	}
}

func (s *HttpServer) ready(c *gin.Context) {
	checks := gin.H{"database": "ok", "storage": "ok"}
	status := http.StatusOK

	if err := database.Ping(c.Request.Context(), s.container.DB); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if checker, ok := s.container.Storage.(storage.HealthChecker); ok {
		if err := checker.Health(c.Request.Context()); err != nil {
			checks["storage"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	checks["status"] = "ready"
	if status != http.StatusOK {
		checks["status"] = "unavailable"
	}
	c.JSON(status, checks)
}
