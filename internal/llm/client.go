package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"

	"go.uber.org/zap"
)

const (
	DefaultURL     = "https://open.bigmodel.cn/api/paas/v4/chat/completions"
	DefaultModel   = "glm-4-flash"
	DefaultTimeout = 30 * time.Second

	// NoContentReply is returned when the completion carries no text.
	NoContentReply = "Sorry, I could not generate a response."

	service = "llm"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Config struct {
	APIKey      string
	URL         string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Sender is what the orchestrator needs from a completion backend.
type Sender interface {
	Send(ctx context.Context, messages []Message) (string, error)
}

// Client posts chat-completion requests to an OpenAI-compatible endpoint.
// One request per call: no retries, no streaming.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.SugaredLogger
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// New fails when no API key is configured.
func New(cfg Config, log *zap.SugaredLogger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &apperr.ConfigurationError{Missing: []string{"ZHIPU_API_KEY"}}
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	return &Client{cfg: cfg, http: &http.Client{}, log: log}, nil
}

func (c *Client) Send(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &apperr.UpstreamTimeout{Service: service, After: c.cfg.Timeout}
		}
		return "", &apperr.TransportError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &apperr.UpstreamTimeout{Service: service, After: c.cfg.Timeout}
		}
		return "", &apperr.TransportError{Service: service, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Errorw("llm api error", "status", resp.StatusCode, "body", truncate(string(respBody), 500))
		return "", &apperr.UpstreamError{Service: service, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &apperr.TransportError{Service: service, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return NoContentReply, nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
