package bias

import (
	"testing"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
)

func testSignals() config.SignalsConfig {
	return config.SignalsConfig{
		RollingWindow:      20,
		FIIZScoreThreshold: 1.0,
		VIXHighThreshold:   15.0,
		SP500MoveThreshold: 0.7,
		PCRBullThreshold:   1.2,
		PCRBearThreshold:   0.7,
		BiasComponents:     10,
	}
}

func TestComputeAllBullish(t *testing.T) {
	e := NewEngine(testSignals())

	features := contracts.FeatureSet{
		FIIZScore:        1.5,
		FIISurprise:      850.0,
		FuturesDirection: 1,
		VIXFlag:          0,
		GlobalRiskFlag:   1,
		SP500Direction:   1,
	}
	positive := "Positive"
	raw := &contracts.RawSnapshot{
		SourceRecord: contracts.SourceRecord{
			PCR:             contracts.Float(1.35),
			GiftSentiment:   &positive,
			USSentiment:     &positive,
			NiftyTrendScore: contracts.Int(2),
			FearGreedSignal: contracts.Int(-1), // extreme fear, contrarian buy
		},
	}

	result := e.Compute(features, raw)

	if result.Score != 9 {
		t.Errorf("Score = %d, want 9", result.Score)
	}
	if result.Label != contracts.LabelStrongBullish {
		t.Errorf("Label = %s, want %s", result.Label, contracts.LabelStrongBullish)
	}
	if result.Guidance == "" {
		t.Error("Guidance should not be empty")
	}
	if len(result.Components) != 10 {
		t.Errorf("Components count = %d, want 10", len(result.Components))
	}
}

func TestComputeStrongBearish(t *testing.T) {
	e := NewEngine(testSignals())

	features := contracts.FeatureSet{
		FIIZScore:        -1.8,
		FIISurprise:      -620.0,
		FuturesDirection: -1,
		VIXFlag:          1,
		GlobalRiskFlag:   1,
		SP500Direction:   -1,
	}
	negative := "Negative"
	raw := &contracts.RawSnapshot{
		SourceRecord: contracts.SourceRecord{
			PCR:             contracts.Float(0.6),
			GiftSentiment:   &negative,
			USSentiment:     &negative,
			NiftyTrendScore: contracts.Int(-2),
			FearGreedSignal: contracts.Int(0),
		},
	}

	result := e.Compute(features, raw)

	if result.Score != -9 {
		t.Errorf("Score = %d, want -9", result.Score)
	}
	if result.Label != contracts.LabelStrongBearish {
		t.Errorf("Label = %s, want %s", result.Label, contracts.LabelStrongBearish)
	}
}

func TestComputeEmptySnapshot(t *testing.T) {
	e := NewEngine(testSignals())

	result := e.Compute(contracts.FeatureSet{}, &contracts.RawSnapshot{})

	if result.Score != 0 {
		t.Errorf("Score = %d, want 0", result.Score)
	}
	if result.Label != contracts.LabelNeutral {
		t.Errorf("Label = %s, want %s", result.Label, contracts.LabelNeutral)
	}
}

func TestComputeDeterministic(t *testing.T) {
	e := NewEngine(testSignals())

	features := contracts.FeatureSet{FIIZScore: 1.2, FuturesDirection: -1, VIXFlag: 1}
	raw := &contracts.RawSnapshot{
		SourceRecord: contracts.SourceRecord{PCR: contracts.Float(0.65)},
	}

	first := e.Compute(features, raw)
	for i := 0; i < 5; i++ {
		again := e.Compute(features, raw)
		if again.Score != first.Score || again.Label != first.Label {
			t.Fatalf("Compute not deterministic: run %d got (%d, %s), want (%d, %s)",
				i, again.Score, again.Label, first.Score, first.Label)
		}
	}
}

func TestFearGreedContrarian(t *testing.T) {
	e := NewEngine(testSignals())

	base := e.Compute(contracts.FeatureSet{}, &contracts.RawSnapshot{
		SourceRecord: contracts.SourceRecord{FearGreedSignal: contracts.Int(0)},
	})
	greed := e.Compute(contracts.FeatureSet{}, &contracts.RawSnapshot{
		SourceRecord: contracts.SourceRecord{FearGreedSignal: contracts.Int(1)},
	})
	fear := e.Compute(contracts.FeatureSet{}, &contracts.RawSnapshot{
		SourceRecord: contracts.SourceRecord{FearGreedSignal: contracts.Int(-1)},
	})

	if greed.Score != base.Score-1 {
		t.Errorf("Extreme greed score = %d, want %d (contrarian sell)", greed.Score, base.Score-1)
	}
	if fear.Score != base.Score+1 {
		t.Errorf("Extreme fear score = %d, want %d (contrarian buy)", fear.Score, base.Score+1)
	}
}

func TestVIXNeverBullish(t *testing.T) {
	e := NewEngine(testSignals())

	calm := e.Compute(contracts.FeatureSet{VIXFlag: 0}, &contracts.RawSnapshot{})
	stressed := e.Compute(contracts.FeatureSet{VIXFlag: 1}, &contracts.RawSnapshot{})

	if calm.Components["vix"] != 0 {
		t.Errorf("Calm vix component = %d, want 0", calm.Components["vix"])
	}
	if stressed.Components["vix"] != -1 {
		t.Errorf("Stressed vix component = %d, want -1", stressed.Components["vix"])
	}
}

func TestSP500GatedByRiskFlag(t *testing.T) {
	e := NewEngine(testSignals())

	// Direction without the flag must not contribute.
	ungated := e.Compute(contracts.FeatureSet{GlobalRiskFlag: 0, SP500Direction: 1}, &contracts.RawSnapshot{})
	if ungated.Components["sp500"] != 0 {
		t.Errorf("sp500 component without risk flag = %d, want 0", ungated.Components["sp500"])
	}

	gated := e.Compute(contracts.FeatureSet{GlobalRiskFlag: 1, SP500Direction: -1}, &contracts.RawSnapshot{})
	if gated.Components["sp500"] != -1 {
		t.Errorf("sp500 component with risk flag = %d, want -1", gated.Components["sp500"])
	}
}

func TestBins(t *testing.T) {
	tests := []struct {
		n          int
		strongBull int
		bull       int
		neutral    int
		bear       int
	}{
		{10, 5, 2, -1, -4},
		{6, 3, 2, -1, -2},
		{4, 2, 2, -1, -1},
		{1, 2, 2, -1, -1},
	}

	for _, tt := range tests {
		strongBull, bull, neutralFloor, bearFloor := Bins(tt.n)
		if strongBull != tt.strongBull || bull != tt.bull || neutralFloor != tt.neutral || bearFloor != tt.bear {
			t.Errorf("Bins(%d) = (%d, %d, %d, %d), want (%d, %d, %d, %d)",
				tt.n, strongBull, bull, neutralFloor, bearFloor,
				tt.strongBull, tt.bull, tt.neutral, tt.bear)
		}
	}
}

func TestClassifyPartition(t *testing.T) {
	// Every integer score must land in exactly one bin, ordered from
	// StrongBearish at the bottom to StrongBullish at the top.
	order := map[contracts.BiasLabel]int{
		contracts.LabelStrongBearish: 0,
		contracts.LabelBearish:       1,
		contracts.LabelNeutral:       2,
		contracts.LabelBullish:       3,
		contracts.LabelStrongBullish: 4,
	}

	for _, n := range []int{1, 4, 6, 10, 14} {
		prev := -1
		for score := -12; score <= 12; score++ {
			label, guidance := classify(score, n)
			rank, ok := order[label]
			if !ok {
				t.Fatalf("classify(%d, %d) returned unknown label %q", score, n, label)
			}
			if guidance == "" {
				t.Fatalf("classify(%d, %d) returned empty guidance", score, n)
			}
			if rank < prev {
				t.Errorf("classify(%d, %d) = %s, labels not monotone in score", score, n, label)
			}
			prev = rank
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score int
		n     int
		want  contracts.BiasLabel
	}{
		{5, 10, contracts.LabelStrongBullish},
		{4, 10, contracts.LabelBullish},
		{2, 10, contracts.LabelBullish},
		{1, 10, contracts.LabelNeutral},
		{-1, 10, contracts.LabelNeutral},
		{-2, 10, contracts.LabelBearish},
		{-4, 10, contracts.LabelBearish},
		{-5, 10, contracts.LabelStrongBearish},
		{-9, 10, contracts.LabelStrongBearish},
		{1, 6, contracts.LabelNeutral},
		{3, 6, contracts.LabelStrongBullish},
		{-2, 6, contracts.LabelBearish},
		{-3, 6, contracts.LabelStrongBearish},
	}

	for _, tt := range tests {
		label, _ := classify(tt.score, tt.n)
		if label != tt.want {
			t.Errorf("classify(%d, %d) = %s, want %s", tt.score, tt.n, label, tt.want)
		}
	}
}

func TestSentimentSign(t *testing.T) {
	pos, neg, neu := "Positive", "Negative", "Neutral"

	if got := sentimentSign(&pos); got != 1 {
		t.Errorf("sentimentSign(Positive) = %d, want 1", got)
	}
	if got := sentimentSign(&neg); got != -1 {
		t.Errorf("sentimentSign(Negative) = %d, want -1", got)
	}
	if got := sentimentSign(&neu); got != 0 {
		t.Errorf("sentimentSign(Neutral) = %d, want 0", got)
	}
	if got := sentimentSign(nil); got != 0 {
		t.Errorf("sentimentSign(nil) = %d, want 0", got)
	}
}

func TestBreakdownCoversAllComponents(t *testing.T) {
	e := NewEngine(testSignals())

	raw := &contracts.RawSnapshot{
		SourceRecord: contracts.SourceRecord{
			PCR: contracts.Float(1.1),
			VIX: contracts.Float(13.2),
		},
	}
	details := e.Breakdown(contracts.FeatureSet{FIIZScore: 0.4}, raw)

	if len(details) != 10 {
		t.Fatalf("Breakdown returned %d components, want 10", len(details))
	}
	for _, d := range details {
		if d.Name == "" {
			t.Error("Breakdown component with empty name")
		}
	}
}
