package sources

import "testing"

func TestFearGreedSignal(t *testing.T) {
	tests := []struct {
		score     float64
		sentiment string
		signal    int
	}{
		{92.0, "Extreme Greed", 1},
		{75.0, "Extreme Greed", 1},
		{74.9, "Greed", 0},
		{55.0, "Greed", 0},
		{50.0, "Neutral", 0},
		{45.0, "Neutral", 0},
		{44.9, "Fear", 0},
		{25.0, "Fear", 0},
		{24.9, "Extreme Fear", -1},
		{5.0, "Extreme Fear", -1},
	}

	for _, tt := range tests {
		sentiment, signal := fearGreedSignal(tt.score)
		if sentiment != tt.sentiment || signal != tt.signal {
			t.Errorf("fearGreedSignal(%v) = (%s, %d), want (%s, %d)",
				tt.score, sentiment, signal, tt.sentiment, tt.signal)
		}
	}
}
