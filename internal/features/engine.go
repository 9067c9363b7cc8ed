package features

import (
	"math"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// Engine computes rolling statistics and direction signals from today's
// raw snapshot plus an ascending window of prior daily rows. Compute is
// pure: the history is never mutated and identical inputs give identical
// features.
type Engine struct {
	cfg    config.SignalsConfig
	logger *logger.Logger
}

// NewEngine creates a feature engine
func NewEngine(cfg config.SignalsConfig, log *logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: log,
	}
}

// Compute derives the feature set for one day. history must be ordered
// ascending by date and excludes today. Fewer than 2 usable samples in
// the window is the cold-start case: z-scores and surprises are exactly 0.
func (e *Engine) Compute(raw *contracts.RawSnapshot, history []*contracts.DailyRow) contracts.FeatureSet {
	var f contracts.FeatureSet

	// FII z-score and surprise over the trailing window
	fiiToday := floatOrZero(raw.FIINet)
	fiiSeries := trailingFloats(history, e.cfg.RollingWindow, func(r *contracts.DailyRow) *float64 {
		return r.Snapshot.FIINet
	})
	if len(fiiSeries) >= 2 {
		mean := meanOf(fiiSeries)
		std := sampleStd(fiiSeries, mean)
		if std > 0 {
			f.FIIZScore = roundTo((fiiToday-mean)/std, 3)
		}
		f.FIISurprise = roundTo(fiiToday-mean, 2)
	}

	// DII surprise (no z-score; the DII series is far less dispersed)
	diiToday := floatOrZero(raw.DIINet)
	diiSeries := trailingFloats(history, e.cfg.RollingWindow, func(r *contracts.DailyRow) *float64 {
		return r.Snapshot.DIINet
	})
	if len(diiSeries) >= 2 {
		f.DIISurprise = roundTo(diiToday-meanOf(diiSeries), 2)
	}

	// Futures OI direction: today vs the single most recent prior value
	if raw.FIINetOI != nil {
		if prev, ok := lastInt64(history, func(r *contracts.DailyRow) *int64 {
			return r.Snapshot.FIINetOI
		}); ok {
			f.FuturesDirection = sign(float64(*raw.FIINetOI - prev))
		}
	}

	// PCR day-over-day change
	if raw.PCR != nil {
		if prev, ok := lastFloat(history, func(r *contracts.DailyRow) *float64 {
			return r.Snapshot.PCR
		}); ok {
			f.PCRChange = roundTo(*raw.PCR-prev, 4)
		}
	}

	// VIX regime flag
	if raw.VIX != nil && *raw.VIX > e.cfg.VIXHighThreshold {
		f.VIXFlag = 1
	}

	// Global risk flag and direction. Direction stays 0 when the move is
	// below threshold so sub-threshold noise never feeds the score.
	spChg := floatOrZero(raw.SP500ChangePct)
	if math.Abs(spChg) > e.cfg.SP500MoveThreshold {
		f.GlobalRiskFlag = 1
		f.SP500Direction = sign(spChg)
	}

	e.logger.WithFields(map[string]interface{}{
		"date":              raw.Date,
		"fii_zscore":        f.FIIZScore,
		"fii_surprise":      f.FIISurprise,
		"futures_direction": f.FuturesDirection,
		"vix_flag":          f.VIXFlag,
		"global_risk_flag":  f.GlobalRiskFlag,
	}).Debug("Computed features")

	return f
}

// trailingFloats collects the last <=window non-missing values from
// history, preserving ascending order.
func trailingFloats(history []*contracts.DailyRow, window int, get func(*contracts.DailyRow) *float64) []float64 {
	var values []float64
	for _, row := range history {
		if v := get(row); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) > window {
		values = values[len(values)-window:]
	}
	return values
}

// lastFloat returns the most recent non-missing value in history.
func lastFloat(history []*contracts.DailyRow, get func(*contracts.DailyRow) *float64) (float64, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if v := get(history[i]); v != nil {
			return *v, true
		}
	}
	return 0, false
}

// lastInt64 returns the most recent non-missing value in history.
func lastInt64(history []*contracts.DailyRow, get func(*contracts.DailyRow) *int64) (int64, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if v := get(history[i]); v != nil {
			return *v, true
		}
	}
	return 0, false
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the Bessel-corrected standard deviation (divisor n-1).
func sampleStd(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
