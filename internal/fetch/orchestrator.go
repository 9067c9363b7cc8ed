package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// Orchestrator sequences every source adapter for one trading day and
// merges their records into a single raw snapshot. One source failing
// never aborts the others.
type Orchestrator struct {
	retry   *RetryPolicy
	primary contracts.SourceAdapter   // institutional flow source; its reported date keys the snapshot
	others  []contracts.SourceAdapter // remaining sources, order is irrelevant to correctness
	store   contracts.Store
	logger  *logger.Logger
}

// SourceOutcome records one source's result for the run.
type SourceOutcome struct {
	Source      string
	Status      contracts.FetchStatus
	Attempts    int
	Critical    bool
	Unavailable bool
	Err         error
}

// Result is one orchestrated run: the merged snapshot plus bookkeeping.
type Result struct {
	Snapshot     contracts.RawSnapshot
	DataComplete bool
	Outcomes     []SourceOutcome
}

// NewOrchestrator wires the retry policy, the primary flow adapter and
// the remaining adapters. The store only receives fetch-log entries here;
// the daily row is written by the pipeline runner.
func NewOrchestrator(retry *RetryPolicy, primary contracts.SourceAdapter, others []contracts.SourceAdapter, store contracts.Store, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		retry:   retry,
		primary: primary,
		others:  others,
		store:   store,
		logger:  log,
	}
}

// Run produces a complete-or-partial snapshot for runDate. The primary
// flow source is fetched first; if it reports a trading date, that date
// replaces runDate as the snapshot key (sources lag the wall clock over
// weekends). All fetch-log entries use the adopted date.
func (o *Orchestrator) Run(ctx context.Context, runDate string) (*Result, error) {
	result := &Result{
		Snapshot:     contracts.RawSnapshot{Date: runDate},
		DataComplete: true,
	}

	o.fetchOne(ctx, o.primary, result)

	// Adopt the authoritative trading date before anything else keys off it.
	if result.Snapshot.ReportedDate != nil {
		result.Snapshot.Date = *result.Snapshot.ReportedDate
	}

	for _, adapter := range o.others {
		o.fetchOne(ctx, adapter, result)
	}

	// Optional indicators that never resolved become documented neutral
	// values so scoring does not branch on their absence.
	result.Snapshot.FillNeutralDefaults()

	if err := o.appendFetchLog(ctx, result); err != nil {
		return nil, err
	}

	o.logger.WithFields(map[string]interface{}{
		"date":          result.Snapshot.Date,
		"sources":       len(result.Outcomes),
		"data_complete": result.DataComplete,
	}).Info("Fetch run completed")

	return result, nil
}

// fetchOne drives a single adapter through the retry policy and folds
// its outcome into the result.
func (o *Orchestrator) fetchOne(ctx context.Context, adapter contracts.SourceAdapter, result *Result) {
	outcome := o.retry.Fetch(ctx, adapter)

	so := SourceOutcome{
		Source:      adapter.Name(),
		Attempts:    outcome.Attempts,
		Critical:    adapter.Critical(),
		Unavailable: outcome.Unavailable,
		Err:         outcome.Err,
	}

	switch {
	case outcome.Success():
		result.Snapshot.Merge(outcome.Record)
		so.Status = contracts.FetchSuccess

	case outcome.Unavailable:
		// Valid empty result: the field stays absent, but this is not a
		// degraded snapshot (the source answered correctly).
		so.Status = contracts.FetchFailed

	default:
		so.Status = contracts.FetchFailed
		if adapter.Critical() {
			result.DataComplete = false
		}
	}

	result.Outcomes = append(result.Outcomes, so)
}

// appendFetchLog writes one audit entry per source attempted. A store
// failure here is a persistence error and aborts the run.
func (o *Orchestrator) appendFetchLog(ctx context.Context, result *Result) error {
	now := time.Now()

	for _, so := range result.Outcomes {
		entry := &contracts.FetchLogEntry{
			Date:      result.Snapshot.Date,
			Source:    so.Source,
			Status:    so.Status,
			Attempts:  so.Attempts,
			CreatedAt: now,
		}
		if so.Err != nil {
			entry.ErrorMessage = so.Err.Error()
		} else if so.Status == contracts.FetchFailed {
			entry.ErrorMessage = "all retries exhausted"
		}

		if err := o.store.AppendFetchLog(ctx, entry); err != nil {
			return fmt.Errorf("failed to append fetch log for %s: %w", so.Source, err)
		}
	}

	return nil
}
