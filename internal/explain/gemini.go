package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/olehluchkiv/goexplain/internal/config"
	"github.com/olehluchkiv/goexplain/internal/render"
)

const defaultGeminiModel = "gemini-2.0-flash"

// generator is the part of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini explains through the Gemini API.
type Gemini struct {
	models  generator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGemini creates a genai client for the Gemini API. An empty model means
// defaultGeminiModel.
func NewGemini(ctx context.Context, cfg config.ExplainConfig, logger *slog.Logger) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		models:  client.Models,
		model:   model,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "gemini"),
	}, nil
}

// Explain asks the model to summarize rep, bounded by the configured timeout.
func (g *Gemini) Explain(ctx context.Context, rep *render.Report) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	gc := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(systemPrompt)},
		},
		Temperature: genai.Ptr[float32](0.2),
	}
	contents := []*genai.Content{genai.NewContentFromText(BuildPrompt(rep), genai.RoleUser)}

	g.logger.Debug("sending Gemini request", "model", g.model, "target", rep.Target)

	resp, err := g.models.GenerateContent(ctx, g.model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("Gemini returned no text")
	}
	g.logger.Debug("received Gemini response", "length", len(text))
	return text, nil
}
