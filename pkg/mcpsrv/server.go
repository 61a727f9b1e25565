package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/internal/agent"
	"github.com/usetrace/harmcp/internal/config"
	"github.com/usetrace/harmcp/internal/logging"
	"github.com/usetrace/harmcp/internal/mcp"
	"github.com/usetrace/harmcp/internal/mcp/tools"
	"github.com/usetrace/harmcp/internal/query"
	"github.com/usetrace/harmcp/internal/search"
	"github.com/usetrace/harmcp/internal/store"
)

// Server is the HAR analysis MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin HAR tools.
//
// Configuration defaults come from the environment; use functional options
// to override logging, add custom tools, etc.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		config: config.Load(), // Load defaults from environment
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logLevel != "" {
		cfg.config.LogLevel = cfg.logLevel
	}
	if cfg.logFile != "" {
		cfg.config.LogFile = cfg.logFile
	}
	logCleanup, err := logging.Setup(cfg.config)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	// Create infrastructure
	traceStore, err := store.New(cfg.config.TraceCacheMaxItems, cfg.config.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace store: %w", err)
	}
	searchEngine, err := search.NewEngine(traceStore, cfg.config.IndexCacheMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create search engine: %w", err)
	}
	queryEngine := query.NewEngine()
	agentService := agent.New(cfg.config)

	// Create deps for internal tools and custom tools
	toolDeps := &tools.Deps{
		Store:  traceStore,
		Search: searchEngine,
		Query:  queryEngine,
		Agent:  agentService,
		Config: cfg.config,
	}

	// Create public deps (same values, different type for public API)
	deps := &Deps{
		Store:  traceStore,
		Search: searchEngine,
		Query:  queryEngine,
		Agent:  agentService,
		Config: cfg.config,
	}

	// Build internal server options
	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}

	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}

	// Add deferred tool registrations (tools that need Deps access)
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport. If HAR_DIR is configured,
// its .har files are loaded before serving. The server runs until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if dir := s.deps.Config.HarDir; dir != "" {
		n, err := s.deps.Store.LoadDir(ctx, dir, s.deps.Config.LoadWorkers)
		if err != nil {
			return fmt.Errorf("loading HAR directory: %w", err)
		}
		slog.Info("loaded HAR directory", slog.String("dir", dir), slog.Int("traces", n))
	}
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
