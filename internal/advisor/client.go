package advisor

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

	"golang.org/x/time/rate"
)

// ErrNotConfigured means no API key was supplied.
var ErrNotConfigured = errors.New("advisor: not configured")

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// RequestsPerMinute caps outbound calls across all users. 0 disables the cap.
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Client talks to /v1/chat/completions.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ Generator = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    cfg.HTTPClient,
		limiter: limiter,
		logger:  logger,
	}
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends prompt with the coaching system message and returns the
// first choice. It waits for the outbound limiter, so ctx should carry a
// deadline.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("advisor: waiting for rate limiter: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.6,
	})
	if err != nil {
		return "", fmt.Errorf("advisor: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("advisor: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor: sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("advisor: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("chat completion failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return "", fmt.Errorf("advisor: upstream status %s", resp.Status)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("advisor: decoding response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("advisor: empty completion")
	}

	c.logger.Debug("chat completion succeeded",
		slog.String("model", c.model),
		slog.Int("tokens", out.Usage.TotalTokens),
	)
	return out.Choices[0].Message.Content, nil
}
