package mcpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/limits"
	"mercator-hq/parley/pkg/schemagen"
	"mercator-hq/parley/pkg/telemetry/logging"
	"mercator-hq/parley/pkg/tool"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes a tool registry to MCP clients.
type Server struct {
	cfg      config.ServerConfig
	registry *tool.Registry
	mcp      *server.MCPServer
	logger   *logging.Logger
	mounts   []func(*http.ServeMux)
	httpMW   []func(http.Handler) http.Handler
	auth     func(http.Handler) http.Handler
	tls      *tls.Config

	mu         sync.Mutex
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMount registers extra HTTP routes served next to the SSE transport.
func WithMount(fn func(*http.ServeMux)) Option {
	return func(s *Server) {
		s.mounts = append(s.mounts, fn)
	}
}

// WithHTTPMiddleware wraps the SSE transport's HTTP handler. The first
// middleware is outermost.
func WithHTTPMiddleware(mws ...func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.httpMW = append(s.httpMW, mws...)
	}
}

// WithAuth guards the MCP endpoints, /sse and /message, with mw. Mounted
// routes such as health checks stay open.
func WithAuth(mw func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.auth = mw
	}
}

// WithTLS serves the SSE transport over HTTPS using cfg.
func WithTLS(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tls = cfg
	}
}

// New creates a server for registry and registers its current tools.
// Later changes to the registry are applied automatically.
func New(cfg config.ServerConfig, registry *tool.Registry, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	if err := s.Sync(registry.List()); err != nil {
		return nil, err
	}
	registry.OnChange(func(tools []*tool.Tool) {
		if err := s.Sync(tools); err != nil {
			s.logger.Error("failed to publish tools", "error", err)
		}
	})
	return s, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Sync replaces the published tool list with tools.
func (s *Server) Sync(tools []*tool.Tool) error {
	published := make([]server.ServerTool, 0, len(tools))
	for _, t := range tools {
		schema, err := schemagen.InputSchemaJSON(t)
		if err != nil {
			return fmt.Errorf("tool %s: %w", t.Name(), err)
		}
		published = append(published, server.ServerTool{
			Tool:    mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema),
			Handler: s.handle(t.Name()),
		})
	}
	s.mcp.SetTools(published...)
	s.logger.Info("tools published", "count", len(published))
	return nil
}

// handle resolves the tool by name on every call so that a call racing a
// reload sees a consistent definition.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.registry.Invoke(ctx, name, req.GetArguments())
		var limited *limits.LimitError
		if errors.Is(err, tool.ErrNotFound) || errors.As(err, &limited) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err != nil {
			return nil, err
		}

		text, err := result.JSON()
		if err != nil {
			return nil, err
		}
		res := mcp.NewToolResultText(text)
		res.IsError = !result.IsAccepted()
		return res, nil
	}
}

// Serve runs the configured transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio, "":
		return s.ServeStdio(ctx)
	case config.TransportSSE:
		return s.ServeSSE(ctx)
	default:
		return fmt.Errorf("unsupported transport %q", s.cfg.Transport)
	}
}

// ServeStdio serves a single client over standard input and output.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", "tools", s.registry.Len())
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StdLogger())
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Handler returns the SSE transport with extra mounts and middleware applied.
func (s *Server) Handler() http.Handler {
	sse := server.NewSSEServer(s.mcp, server.WithBaseURL(s.baseURL()))

	sseHandler, messageHandler := sse.SSEHandler(), sse.MessageHandler()
	if s.auth != nil {
		sseHandler, messageHandler = s.auth(sseHandler), s.auth(messageHandler)
	}

	mux := http.NewServeMux()
	mux.Handle("/sse", sseHandler)
	mux.Handle("/message", messageHandler)
	for _, mount := range s.mounts {
		mount(mux)
	}

	var handler http.Handler = mux
	for i := len(s.httpMW) - 1; i >= 0; i-- {
		handler = s.httpMW[i](handler)
	}
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware(handler)
	return RecoveryMiddleware(s.logger)(handler)
}

// ServeSSE serves MCP over HTTP server-sent events until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ServeSSE(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		TLSConfig:         s.tls,
	}
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over sse", "address", s.cfg.ListenAddress, "tools", s.registry.Len(), "tls", s.tls != nil)
		var err error
		if s.tls != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}

func (s *Server) baseURL() string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	if s.tls != nil {
		return "https://" + s.cfg.ListenAddress
	}
	return "http://" + s.cfg.ListenAddress
}
