// Package service is the boundary the request-handling layer consumes:
// quota first, then the provider chain, then the ledger.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
	"github.com/joseph-ayodele/shot-tracker/internal/ledger"
	"github.com/joseph-ayodele/shot-tracker/internal/metrics"
	"github.com/joseph-ayodele/shot-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shot-tracker/internal/quota"
)

// Output is a successful extraction as seen by the caller layer. When the
// caller is a persistent identity and the ledger write failed, the metrics
// are still returned and PersistErr carries the storage failure.
type Output struct {
	Metrics    entity.ShotMetrics
	Provider   string
	Elapsed    time.Duration
	LedgerID   string // empty when not persisted
	Saved      bool
	PersistErr error
	Quota      quota.Decision
	Limit      int
}

type ExtractionService struct {
	logger  *slog.Logger
	tracker quota.Tracker
	proc    *pipeline.Processor
	store   ledger.Store
	metrics *metrics.Manager
	limits  common.QuotaConfig
}

func NewExtractionService(
	logger *slog.Logger,
	tracker quota.Tracker,
	proc *pipeline.Processor,
	store ledger.Store,
	m *metrics.Manager,
	limits common.QuotaConfig,
) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		logger:  logger,
		tracker: tracker,
		proc:    proc,
		store:   store,
		metrics: m,
		limits:  limits,
	}
}

// LimitFor returns the daily allowance for the identity's class.
func (s *ExtractionService) LimitFor(id entity.Identity) int {
	if id.IsPersistent() {
		return s.limits.DailyLimitAuth
	}
	return s.limits.DailyLimitAnon
}

// Extract runs one request through the pipeline. The quota check runs
// before any provider call, so a denied request costs zero provider budget
// and zero remote spend. A quota-store failure fails the request closed.
func (s *ExtractionService) Extract(ctx context.Context, id entity.Identity, image []byte) (*Output, error) {
	limit := s.LimitFor(id)

	dec, err := s.tracker.CheckAndIncrement(ctx, id, limit)
	if err != nil {
		return nil, common.WrapError(err, "quota check")
	}
	if !dec.Allowed {
		s.metrics.RecordQuotaDenied()
		s.logger.Info("service.extract.quota_denied",
			"identity", id.String(), "limit", limit, "reset_at", dec.ResetAt)
		return nil, &common.QuotaError{Limit: limit, ResetAt: dec.ResetAt}
	}

	res, err := s.proc.Process(ctx, image)
	if err != nil {
		s.metrics.RecordExtraction("none", "failed", 0)
		return nil, err
	}

	out := &Output{
		Metrics:  res.Metrics,
		Provider: res.Provider,
		Elapsed:  res.Elapsed,
		Quota:    dec,
		Limit:    limit,
	}

	if id.IsPersistent() {
		recID, aerr := s.store.Append(ctx, id, res.Metrics)
		if aerr != nil {
			// The extraction is already paid for; report the persistence
			// failure alongside the metrics instead of discarding them.
			s.metrics.RecordLedgerError()
			s.logger.Error("service.extract.persist_failed",
				"identity", id.String(), "error", aerr)
			out.PersistErr = aerr
		} else {
			out.LedgerID = recID
			out.Saved = true
		}
	}

	s.metrics.RecordExtraction(res.Provider, "ok", res.Elapsed)
	s.logger.Info("service.extract.ok",
		"identity", id.String(),
		"provider", res.Provider,
		"elapsed_ms", res.Elapsed.Milliseconds(),
		"saved", out.Saved,
		"remaining", dec.Remaining,
	)
	return out, nil
}

// Shots returns the caller's ledger in append order. Only persistent
// identities own a ledger.
func (s *ExtractionService) Shots(ctx context.Context, id entity.Identity) ([]entity.ShotRecord, error) {
	if !id.IsPersistent() {
		return nil, fmt.Errorf("%w: shot history requires an authenticated identity", common.ErrInvalidInput)
	}
	return s.store.List(ctx, id)
}
