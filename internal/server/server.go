package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Transport modes for Serve.
const (
	ModeStdio = "stdio"
	ModeSSE   = "sse"
)

// SSE endpoints, mounted under one base path.
const (
	basePath    = "/mcp"
	ssePath     = basePath + "/sse"
	messagePath = basePath + "/message"
)

// New creates the MCP server and registers the explain tool.
func New(h *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"goexplain",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	explainTool := mcp.NewTool("explain",
		mcp.WithDescription("Resolve a dotted Go path (package, package.Symbol, package.Type.Method, or a predeclared identifier such as len) "+
			"and return its kind, type, file, signature, doc comment, and members or source as JSON."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Dotted path, e.g. net/http.Client.Do, os, or len"),
		),
		mcp.WithBoolean("include_unexported",
			mcp.Description("List unexported members of packages and types. Default: false"),
		),
		mcp.WithBoolean("explain",
			mcp.Description("Add a natural-language explanation from the configured LLM. Default: false"),
		),
	)

	s.AddTool(explainTool, h.Handle)

	return s
}

// ServeOptions selects the transport.
type ServeOptions struct {
	Mode   string
	Port   int
	Stdin  io.Reader
	Stdout io.Writer
}

// Serve runs s until ctx is cancelled or the transport fails.
func Serve(ctx context.Context, s *server.MCPServer, opts ServeOptions, logger *slog.Logger) error {
	logger = logger.With("component", "mcp-server")

	switch opts.Mode {
	case ModeStdio:
		return serveStdio(ctx, s, opts, logger)
	case ModeSSE:
		return serveSSE(ctx, s, opts.Port, logger)
	default:
		return fmt.Errorf("unknown MCP mode %q (valid: stdio, sse)", opts.Mode)
	}
}

func serveStdio(ctx context.Context, s *server.MCPServer, opts ServeOptions, logger *slog.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	logger.Info("serving MCP over stdio")
	err := stdio.Listen(ctx, opts.Stdin, opts.Stdout)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("stdio server error: %w", err)
}

func serveSSE(ctx context.Context, s *server.MCPServer, port int, logger *slog.Logger) error {
	sse := server.NewSSEServer(s, server.WithStaticBasePath(basePath))

	mux := http.NewServeMux()
	mux.Handle(ssePath, sse.SSEHandler())
	mux.Handle(messagePath, sse.MessageHandler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting SSE server", "addr", srv.Addr, "sse", ssePath, "message", messagePath)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	// Block until the context is cancelled or the server fails.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down SSE server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			logger.Warn("SSE sessions did not close cleanly", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	}
}
