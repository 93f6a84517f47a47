package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olehluchkiv/goexplain/internal/config"
	"github.com/olehluchkiv/goexplain/internal/render"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1"
	defaultOpenAIModel    = "gpt-4o-mini"

	openAIAttempts   = 2
	maxResponseBytes = 10 * 1024 * 1024
)

// OpenAI speaks the OpenAI-compatible chat completions API, which also
// covers local servers such as Ollama and vLLM.
type OpenAI struct {
	cfg    config.ExplainConfig
	http   *http.Client
	logger *slog.Logger
}

// NewOpenAI returns a client for cfg, filling in the public OpenAI endpoint,
// a small default model and a 30 second timeout where cfg leaves them empty.
func NewOpenAI(cfg config.ExplainConfig, logger *slog.Logger) *OpenAI {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultOpenAIEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAI{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "openai"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Explain asks the chat completions endpoint to summarize rep.
func (c *OpenAI) Explain(ctx context.Context, rep *render.Report) (string, error) {
	return c.Complete(ctx, systemPrompt, BuildPrompt(rep))
}

// Complete sends one chat completion request and returns the reply text. A
// 5xx or 429 response is retried once, honoring Retry-After.
func (c *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	return retry(ctx, openAIAttempts, c.logger, func() (string, error) {
		body, err := c.post(ctx, "/chat/completions", payload)
		if err != nil {
			return "", err
		}
		content, err := decodeChat(body)
		if err != nil {
			return "", err
		}
		c.logger.Debug("received LLM response", "length", len(content))
		return content, nil
	})
}

// post sends payload to path under the endpoint and returns the body of a
// 200 response. Rate limiting and server failures come back as
// *transientError.
func (c *OpenAI) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	url := c.cfg.Endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("sending LLM request", "endpoint", url, "model", c.cfg.Model)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &transientError{status: resp.StatusCode, after: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return nil, &transientError{status: resp.StatusCode}
	}
	return nil, fmt.Errorf("LLM API error (status %d): %s", resp.StatusCode, body)
}

// decodeChat returns the content of the first choice.
func decodeChat(body []byte) (string, error) {
	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("LLM API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}
