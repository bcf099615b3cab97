package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/export"
	"github.com/joseph-ayodele/shot-tracker/internal/ledger"
	"github.com/joseph-ayodele/shot-tracker/internal/llm"
	"github.com/joseph-ayodele/shot-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/shot-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/shot-tracker/internal/metrics"
	"github.com/joseph-ayodele/shot-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shot-tracker/internal/quota"
	"github.com/joseph-ayodele/shot-tracker/internal/server"
	"github.com/joseph-ayodele/shot-tracker/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := common.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Quota store: Redis when configured, otherwise in-process.
	var (
		tracker   quota.Tracker
		quotaPing func(context.Context) error
	)
	if cfg.Quota.RedisURL != "" {
		rt, err := quota.NewRedisTracker(cfg.Quota.RedisURL, logger)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := rt.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		tracker = rt
		quotaPing = rt.Ping
		logger.Info("quota.redis.ok")
	} else {
		tracker = quota.NewMemoryTracker()
		logger.Warn("quota.memory",
			"hint", "set SHOTS_QUOTA__REDIS_URL for multi-process deployments")
	}

	store, err := openLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		logger.Error("open ledger", "backend", cfg.Ledger.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close ledger", "error", err)
		}
	}()
	logger.Info("ledger.open", "backend", cfg.Ledger.Backend)

	// Providers in priority order: Gemini first (usually faster), OpenAI as
	// the fallback.
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
	if !gem.Available() && !oai.Available() {
		logger.Warn("no provider credentials configured, every extraction will fail")
	}

	proc := pipeline.NewProcessor(logger, cfg.Extraction.Budget(), gem, oai)
	m := metrics.NewManager("shots")
	svc := service.NewExtractionService(logger, tracker, proc, store, m, cfg.Quota)
	exporter := export.NewService(store, logger)

	handler := server.NewHandler(svc, exporter, []llm.Provider{gem, oai}, quotaPing, logger)
	srv := server.New(cfg.Server.Addr, handler)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()
	logger.Info("http serving", "addr", cfg.Server.Addr)

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

func openLedger(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (ledger.Store, error) {
	switch cfg.Backend {
	case "memory":
		return ledger.NewMemoryStore(), nil
	case "postgres":
		return ledger.OpenPostgres(ctx, cfg, logger)
	default:
		return ledger.OpenSQLite(ctx, cfg.SQLitePath, logger)
	}
}
