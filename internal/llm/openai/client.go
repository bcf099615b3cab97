// Package openai implements the Provider capability against the OpenAI
// chat/completions API with an attached image.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shot-tracker/constants"
	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey    string // if empty, falls back to env OPENAI_API_KEY
	BaseURL   string // default https://api.openai.com/v1
	Model     string // e.g., "gpt-4o-mini"
	MaxTokens int    // completion cap; the metrics object is small
}

type Client struct {
	cfg        Config
	http       *http.Client
	log        *slog.Logger
	authFailed atomic.Bool
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  logger,
	}
}

func (c *Client) Name() string { return constants.ProviderOpenAI }

// Available is false when no key is configured or a previous call was
// rejected as unauthorized; both are permanent for the process lifetime.
func (c *Client) Available() bool {
	return c.cfg.APIKey != "" && !c.authFailed.Load()
}

func (c *Client) Extract(ctx context.Context, image []byte) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("openai: %w", common.ErrUnavailable)
	}

	rid := uuid.New().String()
	start := time.Now()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]any{{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": llm.ExtractionPrompt},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			},
		}},
		"max_tokens": c.cfg.MaxTokens,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, payload, headers, c.log)
	if err != nil {
		if errors.Is(err, common.ErrAuth) {
			c.authFailed.Store(true)
			c.log.Error("openai.extract.auth_rejected",
				"req_id", rid,
				"hint", "variant disabled until restart")
		}
		return "", fmt.Errorf("openai: %w", err)
	}

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("openai: %w: decode response: %v", common.ErrRemote, err)
	}
	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices in response", common.ErrRemote)
	}

	text := envelope.Choices[0].Message.Content
	c.log.Info("openai.extract.ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
