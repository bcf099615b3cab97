// Package gemini implements the Provider capability against the Google
// Gemini generateContent API.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shot-tracker/constants"
	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	APIKey  string // if empty, falls back to env GEMINI_API_KEY
	BaseURL string // default https://generativelanguage.googleapis.com/v1beta
	Model   string // e.g., "gemini-1.5-flash-latest"
}

type Client struct {
	cfg        Config
	http       *http.Client
	log        *slog.Logger
	authFailed atomic.Bool
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-latest"
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

func (c *Client) Name() string { return constants.ProviderGemini }

// Available is false when no key is configured or a previous call was
// rejected as unauthorized; both are permanent for the process lifetime.
func (c *Client) Available() bool {
	return c.cfg.APIKey != "" && !c.authFailed.Load()
}

func (c *Client) Extract(ctx context.Context, image []byte) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("gemini: %w", common.ErrUnavailable)
	}

	rid := uuid.New().String()
	start := time.Now()

	payload := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": llm.ExtractionPrompt},
				{"inline_data": map[string]any{
					"mime_type": "image/jpeg",
					"data":      base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") +
		"/models/" + c.cfg.Model + ":generateContent?key=" + url.QueryEscape(c.cfg.APIKey)

	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, payload, nil, c.log)
	if err != nil {
		if errors.Is(err, common.ErrAuth) {
			c.authFailed.Store(true)
			c.log.Error("gemini.extract.auth_rejected",
				"req_id", rid,
				"hint", "variant disabled until restart")
		}
		return "", fmt.Errorf("gemini: %w", err)
	}

	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("gemini: %w: decode response: %v", common.ErrRemote, err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w: empty completion", common.ErrRemote)
	}

	text := envelope.Candidates[0].Content.Parts[0].Text
	c.log.Info("gemini.extract.ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
