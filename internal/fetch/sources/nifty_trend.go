package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// NiftyTrend derives a 5-day momentum reading for NIFTY 50: percent
// change, SMA positioning and a -2..+2 trend score. Non-critical.
type NiftyTrend struct {
	yahoo  *YahooClient
	logger *logger.Logger
}

// NewNiftyTrend creates the NIFTY trend adapter
func NewNiftyTrend(yahoo *YahooClient, log *logger.Logger) *NiftyTrend {
	return &NiftyTrend{
		yahoo:  yahoo,
		logger: log,
	}
}

// Name identifies the source in the fetch log
func (a *NiftyTrend) Name() string { return "nifty_trend" }

// Critical reports false: the trend score defaults to 0
func (a *NiftyTrend) Critical() bool { return false }

// Fetch computes the trend from a month of daily closes.
func (a *NiftyTrend) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	bars, err := a.yahoo.History(ctx, "^NSEI", "1mo")
	if err != nil {
		return nil, err
	}
	if len(bars) < 5 {
		return nil, fmt.Errorf("insufficient NIFTY history: %d bars", len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	current := closes[len(closes)-1]
	fiveDayChg := (current/closes[len(closes)-5] - 1) * 100

	sma5 := smaTail(closes, 5)
	sma20 := smaTail(closes, 20)

	trend, score := classifyTrend(fiveDayChg, current > sma5, current > sma20)

	a.logger.WithFields(map[string]interface{}{
		"five_day_chg": fiveDayChg,
		"trend":        trend,
		"score":        score,
	}).Debug("Computed NIFTY trend")

	return &contracts.SourceRecord{
		Nifty5DChangePct: contracts.Float(math.Round(fiveDayChg*100) / 100),
		NiftyTrend:       contracts.Str(trend),
		NiftyTrendScore:  contracts.Int(score),
	}, nil
}

// classifyTrend maps 5-day momentum plus SMA positioning to a label and
// a score in -2..+2.
func classifyTrend(fiveDayChg float64, aboveSMA5, aboveSMA20 bool) (string, int) {
	switch {
	case fiveDayChg > 1.5 && aboveSMA5 && aboveSMA20:
		return "Strong Uptrend", 2
	case fiveDayChg > 0.5 && aboveSMA5:
		return "Uptrend", 1
	case fiveDayChg < -1.5 && !aboveSMA5 && !aboveSMA20:
		return "Strong Downtrend", -2
	case fiveDayChg < -0.5 && !aboveSMA5:
		return "Downtrend", -1
	default:
		return "Sideways", 0
	}
}

// smaTail averages the last n values, or all of them when shorter.
func smaTail(values []float64, n int) float64 {
	if len(values) < n {
		n = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}
