// Package openaicompat is a chat/completions client for OpenAI compatible
// providers such as Groq.
package openaicompat

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

	"github.com/micromerit/ai-service/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.groq.com/openai/v1"

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
	log        *slog.Logger
}

func New(cfg Config, executor *resilience.Executor, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
		log:        logger,
	}
}

func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, false)
}

// GenerateJSONFromPrompt requests response_format json_object.
func (c *Client) GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, true)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if jsonMode {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}

	start := time.Now()
	out, err := resilience.Call(ctx, c.executor, "openai.chat", func(ctx context.Context) (string, error) {
		raw, err := c.post(ctx, c.cfg.BaseURL+"/chat/completions", body)
		if err != nil {
			return "", err
		}
		var cc chatResponse
		if err := json.Unmarshal(raw, &cc); err != nil {
			return "", fmt.Errorf("decode chat response: %w", err)
		}
		if len(cc.Choices) == 0 {
			return "", errors.New("no choices in chat response")
		}
		return strings.TrimSpace(cc.Choices[0].Message.Content), nil
	}, resilience.ClassifyHTTPError)
	if err != nil {
		c.log.Warn("llm_call_failed",
			"provider", "openai-compatible",
			"model", c.cfg.Model,
			"json_mode", jsonMode,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", resilience.WrapTemporary("chat completion", err, resilience.ClassifyHTTPError)
	}
	c.log.Debug("llm_call_ok",
		"provider", "openai-compatible",
		"model", c.cfg.Model,
		"json_mode", jsonMode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &resilience.HTTPStatusError{
			Service:    "openai",
			Operation:  "chat",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	return io.ReadAll(resp.Body)
}
