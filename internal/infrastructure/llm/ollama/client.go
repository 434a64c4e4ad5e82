// Package ollama talks to a local Ollama server through /api/generate.
package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/micromerit/ai-service/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
	Logger   *slog.Logger
}

func New(baseURL, model string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   opts.Executor,
		logger:     logger,
	}
}

func (c *Client) Model() string { return c.model }

func (c *Client) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	})
}

// GenerateJSONFromPrompt asks Ollama to constrain the output to JSON.
func (c *Client) GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	})
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	start := time.Now()
	out, err := resilience.Call(ctx, c.executor, "ollama.generate", func(ctx context.Context) (string, error) {
		var response struct {
			Response string `json:"response"`
		}
		if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
			return "", err
		}
		return strings.TrimSpace(response.Response), nil
	}, resilience.ClassifyHTTPError)
	if err != nil {
		c.logger.Warn("llm_call_failed", "provider", "ollama", "model", c.model, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return "", resilience.WrapTemporary("ollama generate", err, resilience.ClassifyHTTPError)
	}
	c.logger.Debug("llm_call_ok", "provider", "ollama", "model", c.model, "duration_ms", time.Since(start).Milliseconds(), "chars", len(out))
	return out, nil
}
