package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/olehluchkiv/goexplain/internal/explain"
	"github.com/olehluchkiv/goexplain/internal/render"
	"github.com/olehluchkiv/goexplain/internal/resolver"
)

// Inspector produces the report for a dotted path.
type Inspector interface {
	Inspect(ctx context.Context, path string, includeUnexported bool) (*render.Report, error)
}

var _ Inspector = (*Session)(nil)

// Handler adapts the explain tool call to an Inspector.
type Handler struct {
	inspector Inspector
	explainer explain.Explainer
	logger    *slog.Logger
}

// NewHandler creates a Handler. A nil explainer disables the explain argument.
func NewHandler(inspector Inspector, explainer explain.Explainer, logger *slog.Logger) *Handler {
	if explainer == nil {
		explainer = explain.Noop{}
	}
	return &Handler{
		inspector: inspector,
		explainer: explainer,
		logger:    logger.With("component", "mcp-handler"),
	}
}

// Handle answers one explain call with the JSON report. Failures are tool
// errors, never protocol errors.
func (h *Handler) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil || path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	includeUnexported := req.GetBool("include_unexported", false)
	withExplanation := req.GetBool("explain", false)

	h.logger.Debug("tool call", "path", path, "include_unexported", includeUnexported, "explain", withExplanation)

	rep, err := h.inspector.Inspect(ctx, path, includeUnexported)
	if errors.Is(err, resolver.ErrUnresolvable) {
		return mcp.NewToolResultError(fmt.Sprintf("Error resolving path: %v", err)), nil
	}
	if err != nil {
		h.logger.Error("inspection failed", "path", path, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Unexpected error: %v", err)), nil
	}

	if withExplanation {
		explain.Annotate(ctx, h.explainer, rep, h.logger)
	}

	var buf bytes.Buffer
	if err := render.NewJSON(&buf).Render(rep); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Unexpected error: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
