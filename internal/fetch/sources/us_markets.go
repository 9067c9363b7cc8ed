package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// USMarkets fetches the three major US cash indices and condenses them
// into a composite sentiment for the Indian open. Non-critical.
type USMarkets struct {
	yahoo  *YahooClient
	logger *logger.Logger
}

// NewUSMarkets creates the US markets adapter
func NewUSMarkets(yahoo *YahooClient, log *logger.Logger) *USMarkets {
	return &USMarkets{
		yahoo:  yahoo,
		logger: log,
	}
}

// Name identifies the source in the fetch log
func (a *USMarkets) Name() string { return "us_markets" }

// Critical reports false: composite sentiment defaults to Neutral
func (a *USMarkets) Critical() bool { return false }

var usIndices = []string{"^GSPC", "^IXIC", "^DJI"}

// Fetch averages the day-over-day change of the indices that resolve.
// One index failing is tolerated; all three failing is a fetch error.
func (a *USMarkets) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	var changes []float64
	for _, symbol := range usIndices {
		_, changePct, _, err := a.yahoo.LastChangePct(ctx, symbol)
		if err != nil {
			a.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("US index fetch failed")
			continue
		}
		changes = append(changes, changePct)
	}

	if len(changes) == 0 {
		return nil, fmt.Errorf("no US index data available")
	}

	sum := 0.0
	for _, c := range changes {
		sum += c
	}
	avg := sum / float64(len(changes))

	a.logger.WithFields(map[string]interface{}{
		"avg_change": avg,
		"indices":    len(changes),
	}).Debug("Fetched US markets")

	return &contracts.SourceRecord{
		USAvgChangePct: contracts.Float(math.Round(avg*100) / 100),
		USSentiment:    contracts.Str(changeSentiment(avg)),
	}, nil
}

// changeSentiment buckets an average percent move; +-0.5% is the band
// the downstream score treats as directional.
func changeSentiment(avgChangePct float64) string {
	switch {
	case avgChangePct > 0.5:
		return "Positive"
	case avgChangePct < -0.5:
		return "Negative"
	default:
		return "Neutral"
	}
}
