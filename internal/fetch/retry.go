package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// errEmptyResult marks an adapter returning (nil, nil); treated as a
// failed attempt, not a valid empty outcome.
var errEmptyResult = errors.New("adapter returned no record and no error")

// RetryPolicy wraps a single-source fetch with bounded linear-backoff
// retries. Exhaustion is a control-flow signal (no-data outcome), never
// an error that aborts the caller.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *logger.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// Outcome is the result of driving one adapter through the policy.
type Outcome struct {
	Record      *contracts.SourceRecord
	Attempts    int
	Unavailable bool  // valid empty result, bypassed retries
	Err         error // last error when exhausted
}

// Success reports whether a record was obtained.
func (o Outcome) Success() bool {
	return o.Record != nil
}

// NewRetryPolicy creates a policy from fetch config.
func NewRetryPolicy(cfg config.FetchConfig, log *logger.Logger) *RetryPolicy {
	return &RetryPolicy{
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
		logger:     log,
		sleep:      sleepCtx,
	}
}

// Fetch invokes the adapter up to maxRetries times, sleeping
// baseDelay*attempt between attempts (none after the last). A
// contracts.ErrUnavailable from the adapter propagates immediately as an
// unavailable outcome without further attempts.
func (p *RetryPolicy) Fetch(ctx context.Context, adapter contracts.SourceAdapter) Outcome {
	var lastErr error

	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		rec, err := adapter.Fetch(ctx)

		if err == nil && rec != nil {
			return Outcome{Record: rec, Attempts: attempt}
		}

		if errors.Is(err, contracts.ErrUnavailable) {
			p.logger.WithField("source", adapter.Name()).Info("Source reported no data available")
			return Outcome{Attempts: attempt, Unavailable: true, Err: err}
		}

		if err == nil {
			err = errEmptyResult
		}
		lastErr = err

		p.logger.WithFields(map[string]interface{}{
			"source":  adapter.Name(),
			"attempt": attempt,
			"max":     p.maxRetries,
			"error":   err.Error(),
		}).Warn("Fetch attempt failed")

		if attempt < p.maxRetries {
			if serr := p.sleep(ctx, p.baseDelay*time.Duration(attempt)); serr != nil {
				return Outcome{Attempts: attempt, Err: serr}
			}
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"source": adapter.Name(),
		"error":  lastErr.Error(),
	}).Error("All fetch attempts exhausted")

	return Outcome{Attempts: p.maxRetries, Err: lastErr}
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
