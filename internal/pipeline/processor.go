// Package pipeline drives provider variants in priority order under a
// global time budget.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
	"github.com/joseph-ayodele/shot-tracker/internal/llm"
)

// Result is a successful extraction: the validated metrics, which variant
// produced them, and how long the whole attempt chain took.
type Result struct {
	Metrics  entity.ShotMetrics
	Provider string
	Elapsed  time.Duration
}

// Processor tries providers strictly in order within a global deadline. It
// holds no per-request state, so concurrent Process calls are safe.
type Processor struct {
	logger    *slog.Logger
	providers []llm.Provider
	budget    time.Duration
}

func NewProcessor(logger *slog.Logger, budget time.Duration, providers ...llm.Provider) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if budget <= 0 {
		budget = 2 * time.Second
	}
	return &Processor{
		logger:    logger,
		providers: providers,
		budget:    budget,
	}
}

// Process runs the image through the provider chain and returns the first
// parseable result. Each variant gets a deadline equal to the REMAINING
// global budget; a variant reached after the budget is spent is skipped
// without a network call. A provider whose output fails to parse is treated
// exactly like a provider that is down: advance to the next one. When every
// variant is skipped or failed, the error wraps ErrAllProvidersExhausted
// together with the last concrete failure for diagnostics.
func (p *Processor) Process(ctx context.Context, image []byte) (*Result, error) {
	start := time.Now()
	deadline := start.Add(p.budget)

	var lastErr error
	for _, prov := range p.providers {
		if !prov.Available() {
			lastErr = fmt.Errorf("%s: %w", prov.Name(), common.ErrUnavailable)
			p.logger.Debug("pipeline.provider.skipped",
				"provider", prov.Name(), "reason", "unavailable")
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			lastErr = fmt.Errorf("%s: %w: budget exhausted before attempt", prov.Name(), common.ErrTimeout)
			p.logger.Warn("pipeline.provider.skipped",
				"provider", prov.Name(), "reason", "budget exhausted")
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, remaining)
		raw, err := prov.Extract(attemptCtx, image)
		cancel()
		if err != nil {
			lastErr = err
			p.logger.Warn("pipeline.provider.failed",
				"provider", prov.Name(), "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
			continue
		}

		metrics, err := llm.ParseShotMetrics(raw, p.logger)
		if err != nil {
			// Unusable text is indistinguishable from a provider that is down.
			lastErr = fmt.Errorf("%s: %w", prov.Name(), err)
			p.logger.Warn("pipeline.provider.unparseable",
				"provider", prov.Name(), "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
			continue
		}

		elapsed := time.Since(start)
		p.logger.Info("pipeline.extract.ok",
			"provider", prov.Name(),
			"elapsed_ms", elapsed.Milliseconds())
		return &Result{Metrics: metrics, Provider: prov.Name(), Elapsed: elapsed}, nil
	}

	if lastErr == nil {
		lastErr = common.ErrUnavailable
	}
	return nil, fmt.Errorf("%w: last error: %w", common.ErrAllProvidersExhausted, lastErr)
}
