package jobs

import (
	"context"
	"time"

	"github.com/quantlab-in/niftybias/internal/pipeline"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// istZone is the market timezone. The target date for a run is the
// calendar date in IST, not the host timezone.
var istZone = time.FixedZone("IST", 5*3600+1800)

// DailyBiasJob runs the daily bias pipeline after the NSE close.
type DailyBiasJob struct {
	runner *pipeline.Runner
	logger *logger.Logger
}

// NewDailyBiasJob creates the daily bias job
func NewDailyBiasJob(runner *pipeline.Runner, log *logger.Logger) *DailyBiasJob {
	return &DailyBiasJob{
		runner: runner,
		logger: log,
	}
}

// Name returns the job name
func (j *DailyBiasJob) Name() string {
	return "daily_bias"
}

// Schedule fires at 16:15 IST on weekdays, after the provisional FII/DII
// numbers are published. Expressed in UTC (10:45) with a seconds field.
func (j *DailyBiasJob) Schedule() string {
	return "0 45 10 * * 1-5"
}

// Run executes the pipeline for today's IST date.
func (j *DailyBiasJob) Run(ctx context.Context) error {
	target := time.Now().In(istZone)

	row, err := j.runner.RunDaily(ctx, target)
	if err != nil {
		return err
	}

	if row == nil {
		j.logger.WithField("date", target.Format("2006-01-02")).Info("Daily bias run skipped")
		return nil
	}

	j.logger.WithFields(map[string]interface{}{
		"date":  row.Date(),
		"score": row.Bias.Score,
		"label": row.Bias.Label,
	}).Info("Daily bias run finished")

	return nil
}
