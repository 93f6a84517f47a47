package explain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olehluchkiv/goexplain/internal/config"
	"github.com/olehluchkiv/goexplain/internal/render"
)

// Explainer produces a short natural-language summary of a report.
type Explainer interface {
	Explain(ctx context.Context, rep *render.Report) (string, error)
}

// Noop never explains anything.
type Noop struct{}

// Explain returns an empty explanation.
func (Noop) Explain(context.Context, *render.Report) (string, error) { return "", nil }

// New builds the explainer selected by cfg.Provider. The API key is
// required for every provider except "none".
func New(ctx context.Context, cfg config.ExplainConfig, logger *slog.Logger) (Explainer, error) {
	logger.Debug("configuring explainer", "explain", cfg)

	if cfg.Provider == config.ProviderNone {
		return Noop{}, nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s environment variable is required when -explain is enabled", config.EnvAPIKey)
	}

	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg, logger), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown explain provider %q", cfg.Provider)
	}
}

// Annotate fills rep.Explanation using e. A failure is logged and recorded as
// a notice in the report; it never aborts rendering.
func Annotate(ctx context.Context, e Explainer, rep *render.Report, logger *slog.Logger) {
	text, err := e.Explain(ctx, rep)
	if err != nil {
		logger.Warn("explanation failed", "target", rep.Target, "error", err)
		rep.Explanation = fmt.Sprintf("Explanation unavailable: %v", err)
		return
	}
	rep.Explanation = strings.TrimSpace(text)
}
