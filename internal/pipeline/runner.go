package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/quantlab-in/niftybias/internal/bias"
	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/internal/features"
	"github.com/quantlab-in/niftybias/internal/fetch"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// Runner executes one daily batch: fetch -> features -> bias -> store.
// It is a no-op on weekends and on dates already persisted. The row is
// constructed fully in memory before the single upsert, so a crash
// mid-run never leaves a partial row.
type Runner struct {
	orchestrator *fetch.Orchestrator
	features     *features.Engine
	bias         *bias.Engine
	store        contracts.Store
	cfg          *config.Config
	logger       *logger.Logger
}

// NewRunner wires the pipeline stages. One Runner per process; all
// dependencies are injected explicitly.
func NewRunner(
	orch *fetch.Orchestrator,
	feat *features.Engine,
	biasEngine *bias.Engine,
	store contracts.Store,
	cfg *config.Config,
	log *logger.Logger,
) *Runner {
	return &Runner{
		orchestrator: orch,
		features:     feat,
		bias:         biasEngine,
		store:        store,
		cfg:          cfg,
		logger:       log,
	}
}

// RunDaily processes the target date. Returns (nil, nil) when the run is
// skipped (weekend or already persisted). Store write failures abort the
// run and surface to the caller; fetch failures never do.
func (r *Runner) RunDaily(ctx context.Context, target time.Time) (*contracts.DailyRow, error) {
	runDate := target.Format("2006-01-02")

	if !isWeekday(target) {
		r.logger.WithField("date", runDate).Info("Weekend, skipping run")
		return nil, nil
	}

	// Idempotency gate before any expensive fetch work. Concurrent runs
	// for the same date are prevented here, not only at the final write.
	exists, err := r.store.Exists(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if exists {
		r.logger.WithField("date", runDate).Info("Date already processed, skipping run")
		return nil, nil
	}

	r.logger.WithField("date", runDate).Info("Processing daily run")

	result, err := r.orchestrator.Run(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("fetch orchestration failed: %w", err)
	}

	snapshot := &result.Snapshot

	history, err := r.store.ReadHistory(ctx, r.cfg.Signals.RollingWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	// The adopted snapshot date can lag the run date; keep the window
	// strictly prior to the snapshot so today never feeds its own stats.
	history = beforeDate(history, snapshot.Date)

	featureSet := r.features.Compute(snapshot, history)
	biasResult := r.bias.Compute(featureSet, snapshot)

	r.logger.WithFields(map[string]interface{}{
		"date":  snapshot.Date,
		"score": biasResult.Score,
		"label": biasResult.Label,
	}).Info("Computed bias")

	row := &contracts.DailyRow{
		Snapshot:       *snapshot,
		Features:       featureSet,
		Bias:           biasResult,
		FetchTimestamp: time.Now(),
		DataComplete:   result.DataComplete,
	}

	if err := r.store.UpsertRow(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to persist daily row: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"date":          row.Date(),
		"score":         biasResult.Score,
		"label":         biasResult.Label,
		"data_complete": row.DataComplete,
	}).Info("Stored daily row")

	return row, nil
}

// isWeekday reports whether t is Monday through Friday.
func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// beforeDate filters history to rows strictly before date. ISO dates
// compare correctly as strings.
func beforeDate(history []*contracts.DailyRow, date string) []*contracts.DailyRow {
	out := history[:0]
	for _, row := range history {
		if row.Date() < date {
			out = append(out, row)
		}
	}
	return out
}
