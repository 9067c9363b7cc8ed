package bias

import (
	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
)

// Engine maps a feature set plus raw snapshot to an integer bias score
// and a label/guidance pair. Every component contributes a bounded small
// integer so no single signal can dominate: with all ten components the
// score stays within [-8, +8] in practice (VIX never contributes +1 and
// the trend/contrarian pair cannot both max out the same direction).
//
// Compute is pure and deterministic: no randomness, no hidden state.
// Absent inputs contribute a neutral 0, so the engine works with any
// subset of components present.
type Engine struct {
	cfg config.SignalsConfig
}

// NewEngine creates a bias engine
func NewEngine(cfg config.SignalsConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Compute derives the bias result. The score is the plain sum of the
// component contributions, never clipped.
func (e *Engine) Compute(features contracts.FeatureSet, raw *contracts.RawSnapshot) contracts.BiasResult {
	score := 0
	components := make(map[string]int)

	// 1. FII z-score: institutional flow momentum
	switch {
	case features.FIIZScore > e.cfg.FIIZScoreThreshold:
		components["fii_zscore"] = 1
	case features.FIIZScore < -e.cfg.FIIZScoreThreshold:
		components["fii_zscore"] = -1
	default:
		components["fii_zscore"] = 0
	}

	// 2. FII cash surprise: sign only, no threshold
	components["fii_surprise"] = signInt(features.FIISurprise)

	// 3. Futures OI direction: pass the sign through unscaled
	components["futures_oi"] = features.FuturesDirection

	// 4. PCR level: options sentiment
	components["pcr"] = 0
	if raw.PCR != nil {
		switch {
		case *raw.PCR > e.cfg.PCRBullThreshold:
			components["pcr"] = 1
		case *raw.PCR < e.cfg.PCRBearThreshold:
			components["pcr"] = -1
		}
	}

	// 5. VIX regime: high volatility is never a bullish contributor
	components["vix"] = 0
	if features.VIXFlag == 1 {
		components["vix"] = -1
	}

	// 6. Global risk: signed direction only when the magnitude flag is set
	components["sp500"] = 0
	if features.GlobalRiskFlag == 1 {
		components["sp500"] = features.SP500Direction
	}

	// 7. GIFT Nifty pre-market sentiment
	components["gift_nifty"] = sentimentSign(raw.GiftSentiment)

	// 8. US markets sentiment
	components["us_markets"] = sentimentSign(raw.USSentiment)

	// 9. NIFTY trend: the upstream score is -2..+2, thresholded to -1/0/+1
	components["nifty_trend"] = 0
	if raw.NiftyTrendScore != nil {
		switch {
		case *raw.NiftyTrendScore >= 1:
			components["nifty_trend"] = 1
		case *raw.NiftyTrendScore <= -1:
			components["nifty_trend"] = -1
		}
	}

	// 10. Fear & Greed: contrarian, so the signal's own sign is
	// subtracted. Extreme greed (+1) reduces the score; extreme fear
	// (-1) increases it.
	components["fear_greed"] = 0
	if raw.FearGreedSignal != nil && *raw.FearGreedSignal != 0 {
		components["fear_greed"] = -*raw.FearGreedSignal
	}

	for _, c := range components {
		score += c
	}

	label, guidance := classify(score, e.cfg.BiasComponents)

	return contracts.BiasResult{
		Score:      score,
		Label:      label,
		Guidance:   guidance,
		Components: components,
	}
}

// Bins returns the label cut points for n active components:
// StrongBullish at and above the strong cut, Bullish from +2, Neutral
// from -1, Bearish down to the mirrored strong cut, StrongBearish below.
// The strong cut is ceil(n/2), so wider component sets widen the outer
// bins while the neutral band stays fixed at [-1,+1].
func Bins(n int) (strongBull, bull, neutralFloor, bearFloor int) {
	strongBull = (n + 1) / 2
	if strongBull < 2 {
		// Degenerate configs (n<3) still need ordered, non-overlapping bins.
		strongBull = 2
	}
	return strongBull, 2, -1, -(strongBull - 1)
}

// classify maps a score to its label and guidance via ordered, half-open
// integer bins from highest to lowest. Every integer lands in exactly
// one bin.
func classify(score, numComponents int) (contracts.BiasLabel, string) {
	strongBull, bull, neutralFloor, bearFloor := Bins(numComponents)

	switch {
	case score >= strongBull:
		return contracts.LabelStrongBullish,
			"Multiple bullish signals aligned. Institutions and global cues favor upside. " +
				"Consider buy-on-dips strategy."
	case score >= bull:
		return contracts.LabelBullish,
			"Net positive institutional flow with supportive global cues. " +
				"Lean long with normal position sizing."
	case score >= neutralFloor:
		return contracts.LabelNeutral,
			"Mixed signals across indicators. No clear directional edge. " +
				"Reduce position sizes or wait for clarity."
	case score >= bearFloor:
		return contracts.LabelBearish,
			"Net negative institutional flow. Global cues or trend not supportive. " +
				"Lean short or stay flat."
	default:
		return contracts.LabelStrongBearish,
			"Multiple bearish signals aligned. Institutions positioned short, global risk elevated. " +
				"Avoid fresh longs, favor hedges or short positions."
	}
}

func signInt(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// sentimentSign maps categorical sentiment to a signed contribution.
func sentimentSign(s *string) int {
	if s == nil {
		return 0
	}
	switch *s {
	case "Positive":
		return 1
	case "Negative":
		return -1
	default:
		return 0
	}
}
