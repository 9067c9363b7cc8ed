package contracts

import "time"

// SourceRecord carries the fields a single source adapter is responsible
// for. Nil means the source did not produce the field; a zero value is
// real data (an FII net of 0.0 is a flat day, not a failed fetch).
type SourceRecord struct {
	// ReportedDate is the trading date the source claims its data belongs
	// to (YYYY-MM-DD). Sources can lag the wall clock over weekends.
	ReportedDate *string

	// FII/DII cash market flows (crores)
	FIIBuy  *float64
	FIISell *float64
	FIINet  *float64
	DIIBuy  *float64
	DIISell *float64
	DIINet  *float64

	// FII index futures open interest (contracts)
	FIILongOI  *int64
	FIIShortOI *int64
	FIINetOI   *int64

	// NIFTY option chain
	PCR         *float64
	TotalCallOI *int64
	TotalPutOI  *int64

	// India VIX
	VIX *float64

	// S&P 500
	SP500Close     *float64
	SP500ChangePct *float64

	// GIFT Nifty pre-market gap
	GiftNifty     *float64
	GiftGapPct    *float64
	GiftSentiment *string

	// US markets composite
	USAvgChangePct *float64
	USSentiment    *string

	// NIFTY trend
	Nifty5DChangePct *float64
	NiftyTrend       *string
	NiftyTrendScore  *int

	// CNN Fear & Greed
	FearGreedScore  *float64
	FearGreedRating *string
	FearGreedSignal *int
}

// RawSnapshot is the merged view of all sources for one trading day.
// Fields arrive incrementally as each adapter succeeds; absent fields
// stay nil and are never coerced to zero before feature computation.
type RawSnapshot struct {
	Date string // YYYY-MM-DD, the snapshot's uniqueness key

	SourceRecord
}

// Merge copies every non-nil field of rec into the snapshot. Merging is
// commutative across adapters because no two adapters own the same field.
func (s *RawSnapshot) Merge(rec *SourceRecord) {
	if rec == nil {
		return
	}

	mergeFloat := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	mergeInt64 := func(dst **int64, src *int64) {
		if src != nil {
			*dst = src
		}
	}
	mergeInt := func(dst **int, src *int) {
		if src != nil {
			*dst = src
		}
	}
	mergeStr := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}

	mergeFloat(&s.FIIBuy, rec.FIIBuy)
	mergeFloat(&s.FIISell, rec.FIISell)
	mergeFloat(&s.FIINet, rec.FIINet)
	mergeFloat(&s.DIIBuy, rec.DIIBuy)
	mergeFloat(&s.DIISell, rec.DIISell)
	mergeFloat(&s.DIINet, rec.DIINet)

	mergeInt64(&s.FIILongOI, rec.FIILongOI)
	mergeInt64(&s.FIIShortOI, rec.FIIShortOI)
	mergeInt64(&s.FIINetOI, rec.FIINetOI)

	mergeFloat(&s.PCR, rec.PCR)
	mergeInt64(&s.TotalCallOI, rec.TotalCallOI)
	mergeInt64(&s.TotalPutOI, rec.TotalPutOI)

	mergeFloat(&s.VIX, rec.VIX)

	mergeFloat(&s.SP500Close, rec.SP500Close)
	mergeFloat(&s.SP500ChangePct, rec.SP500ChangePct)

	mergeFloat(&s.GiftNifty, rec.GiftNifty)
	mergeFloat(&s.GiftGapPct, rec.GiftGapPct)
	mergeStr(&s.GiftSentiment, rec.GiftSentiment)

	mergeFloat(&s.USAvgChangePct, rec.USAvgChangePct)
	mergeStr(&s.USSentiment, rec.USSentiment)

	mergeFloat(&s.Nifty5DChangePct, rec.Nifty5DChangePct)
	mergeStr(&s.NiftyTrend, rec.NiftyTrend)
	mergeInt(&s.NiftyTrendScore, rec.NiftyTrendScore)

	mergeFloat(&s.FearGreedScore, rec.FearGreedScore)
	mergeStr(&s.FearGreedRating, rec.FearGreedRating)
	mergeInt(&s.FearGreedSignal, rec.FearGreedSignal)
}

// FillNeutralDefaults substitutes documented neutral values for the
// optional (non-critical) fields that are still missing, so downstream
// scoring never branches on their absence. Critical fields (flows, OI,
// PCR, VIX) are left nil; their absence is tracked via data_complete.
func (s *RawSnapshot) FillNeutralDefaults() {
	neutral := "Neutral"

	if s.SP500ChangePct == nil {
		s.SP500ChangePct = Float(0.0)
	}
	if s.GiftGapPct == nil {
		s.GiftGapPct = Float(0.0)
	}
	if s.GiftSentiment == nil {
		s.GiftSentiment = &neutral
	}
	if s.USAvgChangePct == nil {
		s.USAvgChangePct = Float(0.0)
	}
	if s.USSentiment == nil {
		s.USSentiment = &neutral
	}
	if s.NiftyTrendScore == nil {
		s.NiftyTrendScore = Int(0)
	}
	if s.FearGreedSignal == nil {
		s.FearGreedSignal = Int(0)
	}
}

// FeatureSet holds the derived statistics for one day. Recomputed fresh
// every run; persisted only as part of the daily row.
type FeatureSet struct {
	FIIZScore        float64 `json:"fii_zscore"`
	FIISurprise      float64 `json:"fii_surprise"`
	DIISurprise      float64 `json:"dii_surprise"`
	FuturesDirection int     `json:"futures_direction"` // sign of day-over-day FII net OI change
	PCRChange        float64 `json:"pcr_change"`
	VIXFlag          int     `json:"vix_flag"`         // 1 = high-volatility regime
	GlobalRiskFlag   int     `json:"global_risk_flag"` // 1 = S&P moved beyond threshold
	SP500Direction   int     `json:"sp500_direction"`  // 0 unless GlobalRiskFlag is set
}

// BiasLabel classifies the aggregate score.
type BiasLabel string

const (
	LabelStrongBullish BiasLabel = "Strong Bullish"
	LabelBullish       BiasLabel = "Bullish"
	LabelNeutral       BiasLabel = "Neutral"
	LabelBearish       BiasLabel = "Bearish"
	LabelStrongBearish BiasLabel = "Strong Bearish"
)

// BiasResult is the engine output: a pure, deterministic function of
// (FeatureSet, RawSnapshot).
type BiasResult struct {
	Score    int            `json:"score"`
	Label    BiasLabel      `json:"label"`
	Guidance string         `json:"guidance"`
	// Components records each signal's signed contribution for diagnostics.
	Components map[string]int `json:"components,omitempty"`
}

// DailyRow is the unit of persistence: one row per unique date.
type DailyRow struct {
	Snapshot RawSnapshot
	Features FeatureSet
	Bias     BiasResult

	FetchTimestamp time.Time
	DataComplete   bool
}

// Date returns the row's uniqueness key.
func (r *DailyRow) Date() string {
	return r.Snapshot.Date
}

// FetchStatus is the outcome of one source's fetch for the audit log.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchFailed  FetchStatus = "failed"
)

// FetchLogEntry is an append-only audit record, one per source per run.
type FetchLogEntry struct {
	Date         string
	Source       string
	Status       FetchStatus
	Attempts     int
	ErrorMessage string
	CreatedAt    time.Time
}
