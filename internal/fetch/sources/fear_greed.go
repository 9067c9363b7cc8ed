package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// FearGreed fetches the CNN Fear & Greed index. The extreme readings
// feed the contrarian bias component: extreme greed is a sell signal,
// extreme fear a buy signal. Non-critical.
type FearGreed struct {
	client *httputil.Client
	url    string
	logger *logger.Logger
}

// NewFearGreed creates the Fear & Greed adapter
func NewFearGreed(cfg *config.Config, client *httputil.Client, log *logger.Logger) *FearGreed {
	return &FearGreed{
		client: client,
		url:    cfg.Sources.FearGreedURL,
		logger: log,
	}
}

// Name identifies the source in the fetch log
func (a *FearGreed) Name() string { return "fear_greed" }

// Critical reports false: the contrarian signal defaults to 0
func (a *FearGreed) Critical() bool { return false }

type fearGreedResponse struct {
	FearAndGreed struct {
		Score  *float64 `json:"score"`
		Rating string   `json:"rating"`
	} `json:"fear_and_greed"`
}

// Fetch retrieves the current index reading.
func (a *FearGreed) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	var resp fearGreedResponse
	if err := a.client.GetJSON(ctx, a.url, &resp); err != nil {
		return nil, err
	}

	if resp.FearAndGreed.Score == nil {
		return nil, fmt.Errorf("fear & greed response has no score")
	}

	score := *resp.FearAndGreed.Score
	sentiment, signal := fearGreedSignal(score)

	rating := resp.FearAndGreed.Rating
	if rating == "" {
		rating = sentiment
	}

	a.logger.WithFields(map[string]interface{}{
		"score":  score,
		"rating": rating,
		"signal": signal,
	}).Debug("Fetched Fear & Greed index")

	return &contracts.SourceRecord{
		FearGreedScore:  contracts.Float(math.Round(score*10) / 10),
		FearGreedRating: contracts.Str(rating),
		FearGreedSignal: contracts.Int(signal),
	}, nil
}

// fearGreedSignal buckets the 0-100 index. Only the extremes produce a
// contrarian signal: +1 above 75 (overheated), -1 below 25 (oversold).
func fearGreedSignal(score float64) (string, int) {
	switch {
	case score >= 75:
		return "Extreme Greed", 1
	case score >= 55:
		return "Greed", 0
	case score >= 45:
		return "Neutral", 0
	case score >= 25:
		return "Fear", 0
	default:
		return "Extreme Fear", -1
	}
}
