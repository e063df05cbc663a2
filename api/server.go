// Package api exposes the resolution pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chesswager/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Dependencies are the services the HTTP layer drives
type Dependencies struct {
	Resolution service.ResolutionService
	Settlement service.SettlementService
	Audit      service.AuditService
	Health     HealthChecker
}

// Server is the HTTP front of the service
type Server struct {
	router *gin.Engine
	deps   Dependencies
}

// NewServer builds the router and registers all routes
func NewServer(deps Dependencies) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{router: router, deps: deps}

	wagers := NewWagerHandler(deps.Resolution, deps.Settlement, deps.Audit)
	router.POST("/wagers/:id/resolve", wagers.Resolve)
	router.POST("/wagers/:id/settle", wagers.Settle)
	router.GET("/wagers/:id/ledger", wagers.Ledger)

	settlements := NewSettlementHandler(deps.Audit)
	router.GET("/settlements", settlements.GetByLink)

	router.GET("/healthz", s.health)
	return s
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Healthy(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("HTTP request")
	}
}
