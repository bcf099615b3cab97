// Command extract runs a single image through the provider chain and
// prints the extracted metrics, without touching quota or the ledger.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/shot-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/shot-tracker/internal/pipeline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: extract <image-file>")
		os.Exit(2)
	}

	image, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read image", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	cfg, err := common.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}

	gem := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Extraction.Gemini.APIKey,
		BaseURL: cfg.Extraction.Gemini.BaseURL,
		Model:   cfg.Extraction.Gemini.Model,
	}, logger)
	oai := openai.NewClient(openai.Config{
		APIKey:  cfg.Extraction.OpenAI.APIKey,
		BaseURL: cfg.Extraction.OpenAI.BaseURL,
		Model:   cfg.Extraction.OpenAI.Model,
	}, logger)

	proc := pipeline.NewProcessor(logger, cfg.Extraction.Budget(), gem, oai)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Extraction.Budget())
	defer cancel()

	start := time.Now()
	res, err := proc.Process(ctx, image)
	if err != nil {
		logger.Error("extract failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(map[string]any{
		"data":       res.Metrics,
		"processor":  res.Provider,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	}, "", "  ")
	fmt.Println(string(out))
}
