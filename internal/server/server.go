// Package server exposes the localizer and the Knowledge Base over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/neurolocus/internal/model"
	"github.com/ppiankov/neurolocus/internal/pipeline"
	"github.com/ppiankov/neurolocus/internal/worker"
)

const (
	limiterIdle     = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP API over one Localizer
type Server struct {
	localizer *pipeline.Localizer
	config    model.ServerConfig
	logger    *zap.Logger
	metrics   *Metrics
	limiter   *worker.Limiter
	engine    *gin.Engine
}

// New builds the router. Rate limiting is off when requests_per_second is not positive.
func New(localizer *pipeline.Localizer, cfg *model.Config, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		localizer: localizer,
		config:    cfg.Server,
		logger:    logger,
		metrics:   NewMetrics(),
	}
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		s.limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(s.logger, s.metrics))

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api/neuro")
	if s.limiter != nil {
		api.Use(RateLimit(s.limiter, time.Second))
	}
	api.Use(BodyLimit(s.config.MaxBodyBytes))

	api.POST("/parse_findings", s.parseFindings)
	api.POST("/extract_interview_findings", s.extractInterviewFindings)
	api.GET("/syndromes", s.syndromes)
	api.GET("/cranial_nerves", s.cranialNerves)
	api.GET("/territories", s.territories)

	return r
}

// Handler returns the router as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the server collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	if s.limiter != nil {
		go s.pruneLimiter(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(limiterIdle); n > 0 {
				s.logger.Debug("pruned idle rate limiters", zap.Int("clients", n))
			}
		}
	}
}
