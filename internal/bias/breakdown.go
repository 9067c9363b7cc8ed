package bias

import (
	"fmt"

	"github.com/quantlab-in/niftybias/internal/contracts"
)

// ComponentDetail describes one signal's input and rule for display.
type ComponentDetail struct {
	Name      string      `json:"name"`
	Value     interface{} `json:"value,omitempty"`
	Sentiment string      `json:"sentiment,omitempty"`
	Threshold string      `json:"threshold,omitempty"`
	Note      string      `json:"note,omitempty"`
}

// Breakdown returns the per-component inputs and rules behind a bias
// result, for the dashboard consumer. Purely informational; the score
// itself comes from Engine.Compute.
func (e *Engine) Breakdown(features contracts.FeatureSet, raw *contracts.RawSnapshot) []ComponentDetail {
	return []ComponentDetail{
		{
			Name:      "FII Z-score",
			Value:     features.FIIZScore,
			Threshold: fmt.Sprintf(">%.1f bullish, <-%.1f bearish", e.cfg.FIIZScoreThreshold, e.cfg.FIIZScoreThreshold),
		},
		{
			Name:      "FII Surprise",
			Value:     features.FIISurprise,
			Threshold: ">0 bullish, <0 bearish",
		},
		{
			Name:      "Futures OI",
			Value:     features.FuturesDirection,
			Threshold: "+1 long buildup, -1 short buildup",
		},
		{
			Name:      "PCR",
			Value:     derefFloat(raw.PCR),
			Threshold: fmt.Sprintf(">%.1f bullish, <%.1f bearish", e.cfg.PCRBullThreshold, e.cfg.PCRBearThreshold),
		},
		{
			Name:      "VIX",
			Value:     derefFloat(raw.VIX),
			Threshold: fmt.Sprintf(">%.1f = high vol (bearish pressure)", e.cfg.VIXHighThreshold),
		},
		{
			Name:      "S&P 500",
			Value:     derefFloat(raw.SP500ChangePct),
			Threshold: fmt.Sprintf(">%.1f%% move triggers signal", e.cfg.SP500MoveThreshold),
		},
		{
			Name:      "GIFT Nifty",
			Value:     derefFloat(raw.GiftGapPct),
			Sentiment: derefStr(raw.GiftSentiment),
		},
		{
			Name:      "US Markets",
			Value:     derefFloat(raw.USAvgChangePct),
			Sentiment: derefStr(raw.USSentiment),
		},
		{
			Name:      "NIFTY Trend",
			Value:     derefFloat(raw.Nifty5DChangePct),
			Sentiment: derefStr(raw.NiftyTrend),
		},
		{
			Name:      "Fear & Greed",
			Value:     derefFloat(raw.FearGreedScore),
			Sentiment: derefStr(raw.FearGreedRating),
			Note:      "Contrarian signal",
		},
	}
}

func derefFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func derefStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
