// Package rewrite talks to an Ollama server to turn rough notes into a
// formal obituary paragraph.
package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3:latest"
)

const systemPrompt = "You are a professional obituary writer. Rewrite the provided text in a formal, respectful tone. " +
	"Use exactly the same information and add nothing: no dates, names, family members, achievements or adjectives " +
	"that are not in the original. Write in past tense. Output only the rewritten paragraph, with no introduction, " +
	"quotes or explanation."

const userPrompt = "Rewrite this text in a formal obituary tone. Keep every fact as given and only change it to past tense. " +
	"Output only the rewritten paragraph:\n\n"

type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client implements domain.TextRewriter against POST {base}/api/chat.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
	retryDelay time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message *chatMessage `json:"message"`
	Error   string       `json:"error,omitempty"`
}

// errPermanent marks failures that a retry cannot fix.
var errPermanent = errors.New("permanent")

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Rewrite returns the cleaned model reply for text.
func (c *Client) Rewrite(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		out, err := c.once(ctx, text)
		if err == nil {
			return Clean(out), nil
		}
		lastErr = err
		c.log.Warn("ollama attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.maxRetries),
			zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, errPermanent) {
			break
		}
		if attempt < c.maxRetries {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("ollama rewrite: %w", lastErr)
}

func (c *Client) once(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt + text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", fmt.Errorf("%w: %w", errPermanent, err)
		}
		return "", err
	}
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", errPermanent, err)
	}
	if cr.Error != "" {
		return "", fmt.Errorf("ollama: %s", cr.Error)
	}
	if cr.Message == nil {
		return "", fmt.Errorf("%w: response without message", errPermanent)
	}
	return cr.Message.Content, nil
}
