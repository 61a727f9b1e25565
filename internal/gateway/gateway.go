// Package gateway exposes the trace store and extraction pipeline over
// HTTP for non-MCP consumers: HAR upload, endpoint extraction, OpenAPI
// synthesis, browser capture, and server generation.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/usetrace/harmcp/internal/agent"
	"github.com/usetrace/harmcp/internal/config"
	"github.com/usetrace/harmcp/internal/query"
	"github.com/usetrace/harmcp/internal/search"
	"github.com/usetrace/harmcp/internal/store"
	"github.com/usetrace/harmcp/pkg/client"
)

// Gateway is the HTTP front of the HAR analysis stack.
type Gateway struct {
	cfg     *config.Config
	store   *store.Store
	search  *search.Engine
	query   *query.Engine
	agent   *agent.Service
	capture *client.Client

	engine *gin.Engine
	srv    *http.Server
}

// New builds a gateway with its routes registered.
func New(cfg *config.Config, st *store.Store, se *search.Engine, qe *query.Engine, ag *agent.Service, capture *client.Client) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	g := &Gateway{
		cfg:     cfg,
		store:   st,
		search:  se,
		query:   qe,
		agent:   ag,
		capture: capture,
		engine:  engine,
	}
	g.registerRoutes()
	return g
}

func (g *Gateway) registerRoutes() {
	api := g.engine.Group("/api")
	{
		api.GET("/health", g.handleHealth)

		api.POST("/traces", g.handleUploadTrace)
		api.GET("/traces", g.handleListTraces)
		api.GET("/traces/:id/endpoints", g.handleEndpoints)
		api.GET("/traces/:id/openapi", g.handleOpenAPI)
		api.GET("/traces/:id/entries", g.handleSearchEntries)

		api.POST("/capture", g.handleCapture)
		api.POST("/generate", g.handleGenerate)
	}
}

// Engine returns the underlying gin engine for tests.
func (g *Gateway) Engine() *gin.Engine {
	return g.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	g.srv = &http.Server{
		Addr:    g.cfg.GatewayAddr,
		Handler: g.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", slog.String("addr", g.cfg.GatewayAddr))
		if err := g.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return g.srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request through slog, matching the process-wide
// log format.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
			slog.LogAttrs(c.Request.Context(), slog.LevelError, "request failed", attrs...)
		} else {
			slog.LogAttrs(c.Request.Context(), slog.LevelInfo, "request completed", attrs...)
		}
	}
}
