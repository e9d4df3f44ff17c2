// Package http hosts the tracker process's operational surface: liveness,
// readiness, and metrics. Search and tracking are not exposed over HTTP by
// this process.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
)

// ReadinessCheck reports whether one dependency is usable. The name shows
// up in the readiness payload.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server is the operational HTTP host.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	logger logging.Logger
	checks []ReadinessCheck
}

func NewServer(addr string, metricsHandler http.Handler, logger logging.Logger, checks ...ReadinessCheck) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		logger: logger.Named("http"),
		checks: checks,
	}

	engine.GET("/healthz", s.healthz)
	engine.GET("/readyz", s.readyz)
	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	result := gin.H{}
	ready := true
	for _, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			result[check.Name] = err.Error()
			ready = false
			continue
		}
		result[check.Name] = "ok"
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": ready, "checks": result})
}

// Start serves until Shutdown is called. It blocks; run it on its own
// goroutine.
func (s *Server) Start() error {
	s.logger.Info("http server listening", logging.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the engine, used by tests.
func (s *Server) Handler() http.Handler { return s.engine }
