package sources

import (
	"context"
	"math"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// SP500 fetches the S&P 500 close and day-over-day change. Non-critical:
// on exhaustion the orchestrator substitutes a neutral 0% move.
type SP500 struct {
	yahoo  *YahooClient
	logger *logger.Logger
}

// NewSP500 creates the S&P 500 adapter
func NewSP500(yahoo *YahooClient, log *logger.Logger) *SP500 {
	return &SP500{
		yahoo:  yahoo,
		logger: log,
	}
}

// Name identifies the source in the fetch log
func (a *SP500) Name() string { return "sp500" }

// Critical reports false: a global reference index, not a core input
func (a *SP500) Critical() bool { return false }

// Fetch retrieves the latest S&P 500 close and percent change.
func (a *SP500) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	close, changePct, _, err := a.yahoo.LastChangePct(ctx, "^GSPC")
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"close":      close,
		"change_pct": changePct,
	}).Debug("Fetched S&P 500")

	return &contracts.SourceRecord{
		SP500Close:     contracts.Float(math.Round(close*100) / 100),
		SP500ChangePct: contracts.Float(math.Round(changePct*100) / 100),
	}, nil
}
