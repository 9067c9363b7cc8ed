package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// Repository implements contracts.Store on PostgreSQL. One row per
// unique date in daily_bias; fetch_log is append-only.
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewRepository creates a store repository
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: log,
	}
}

// rowColumns is the full column set, kept in one place so upsert and
// selects cannot drift apart.
const rowColumns = `
	date,
	fii_buy, fii_sell, fii_net,
	dii_buy, dii_sell, dii_net,
	fii_long_oi, fii_short_oi, fii_net_oi,
	pcr, total_ce_oi, total_pe_oi,
	vix,
	sp500_close, sp500_change_pct,
	gift_nifty, gift_gap_pct, gift_sentiment,
	us_avg_chg, us_sentiment,
	nifty_5d_chg, nifty_trend, nifty_trend_score,
	fear_greed_score, fear_greed_rating, fear_greed_signal,
	fii_zscore, fii_surprise, dii_surprise,
	futures_direction, pcr_change,
	vix_flag, global_risk_flag, sp500_direction,
	bias_score, bias_label, bias_guidance,
	fetch_timestamp, data_complete`

// UpsertRow inserts or fully replaces the row for row.Date(). Callers
// supply the complete row; every data column is overwritten on conflict.
func (r *Repository) UpsertRow(ctx context.Context, row *contracts.DailyRow) error {
	query := `
		INSERT INTO daily_bias (` + rowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		        $31, $32, $33, $34, $35, $36, $37, $38, $39, $40)
		ON CONFLICT (date) DO UPDATE SET
			fii_buy = EXCLUDED.fii_buy,
			fii_sell = EXCLUDED.fii_sell,
			fii_net = EXCLUDED.fii_net,
			dii_buy = EXCLUDED.dii_buy,
			dii_sell = EXCLUDED.dii_sell,
			dii_net = EXCLUDED.dii_net,
			fii_long_oi = EXCLUDED.fii_long_oi,
			fii_short_oi = EXCLUDED.fii_short_oi,
			fii_net_oi = EXCLUDED.fii_net_oi,
			pcr = EXCLUDED.pcr,
			total_ce_oi = EXCLUDED.total_ce_oi,
			total_pe_oi = EXCLUDED.total_pe_oi,
			vix = EXCLUDED.vix,
			sp500_close = EXCLUDED.sp500_close,
			sp500_change_pct = EXCLUDED.sp500_change_pct,
			gift_nifty = EXCLUDED.gift_nifty,
			gift_gap_pct = EXCLUDED.gift_gap_pct,
			gift_sentiment = EXCLUDED.gift_sentiment,
			us_avg_chg = EXCLUDED.us_avg_chg,
			us_sentiment = EXCLUDED.us_sentiment,
			nifty_5d_chg = EXCLUDED.nifty_5d_chg,
			nifty_trend = EXCLUDED.nifty_trend,
			nifty_trend_score = EXCLUDED.nifty_trend_score,
			fear_greed_score = EXCLUDED.fear_greed_score,
			fear_greed_rating = EXCLUDED.fear_greed_rating,
			fear_greed_signal = EXCLUDED.fear_greed_signal,
			fii_zscore = EXCLUDED.fii_zscore,
			fii_surprise = EXCLUDED.fii_surprise,
			dii_surprise = EXCLUDED.dii_surprise,
			futures_direction = EXCLUDED.futures_direction,
			pcr_change = EXCLUDED.pcr_change,
			vix_flag = EXCLUDED.vix_flag,
			global_risk_flag = EXCLUDED.global_risk_flag,
			sp500_direction = EXCLUDED.sp500_direction,
			bias_score = EXCLUDED.bias_score,
			bias_label = EXCLUDED.bias_label,
			bias_guidance = EXCLUDED.bias_guidance,
			fetch_timestamp = EXCLUDED.fetch_timestamp,
			data_complete = EXCLUDED.data_complete
	`

	s := &row.Snapshot
	f := &row.Features
	b := &row.Bias

	dataComplete := 0
	if row.DataComplete {
		dataComplete = 1
	}

	_, err := r.pool.Exec(ctx, query,
		s.Date,
		s.FIIBuy, s.FIISell, s.FIINet,
		s.DIIBuy, s.DIISell, s.DIINet,
		s.FIILongOI, s.FIIShortOI, s.FIINetOI,
		s.PCR, s.TotalCallOI, s.TotalPutOI,
		s.VIX,
		s.SP500Close, s.SP500ChangePct,
		s.GiftNifty, s.GiftGapPct, s.GiftSentiment,
		s.USAvgChangePct, s.USSentiment,
		s.Nifty5DChangePct, s.NiftyTrend, s.NiftyTrendScore,
		s.FearGreedScore, s.FearGreedRating, s.FearGreedSignal,
		f.FIIZScore, f.FIISurprise, f.DIISurprise,
		f.FuturesDirection, f.PCRChange,
		f.VIXFlag, f.GlobalRiskFlag, f.SP500Direction,
		b.Score, string(b.Label), b.Guidance,
		row.FetchTimestamp, dataComplete,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily row for %s: %w", s.Date, err)
	}

	return nil
}

// AppendFetchLog inserts one audit entry. Never deduplicated.
func (r *Repository) AppendFetchLog(ctx context.Context, entry *contracts.FetchLogEntry) error {
	query := `
		INSERT INTO fetch_log (date, source, status, attempts, error_message)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`

	_, err := r.pool.Exec(ctx, query,
		entry.Date, entry.Source, string(entry.Status), entry.Attempts, entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to append fetch log: %w", err)
	}

	return nil
}

// ReadHistory returns the last n rows ascending by date. Shorter history
// returns fewer rows without error.
func (r *Repository) ReadHistory(ctx context.Context, n int) ([]*contracts.DailyRow, error) {
	query := `SELECT ` + rowColumns + ` FROM daily_bias ORDER BY date DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var history []*contracts.DailyRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	// Query is newest-first for the LIMIT; callers want ascending.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}

// ReadLatest returns the most recent row, or contracts.ErrNoRows when
// nothing is persisted yet.
func (r *Repository) ReadLatest(ctx context.Context) (*contracts.DailyRow, error) {
	query := `SELECT ` + rowColumns + ` FROM daily_bias ORDER BY date DESC LIMIT 1`

	row, err := scanRow(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNoRows
		}
		return nil, err
	}

	return row, nil
}

// Exists reports whether a row for the date is already persisted. The
// daily runner calls this before starting expensive fetch work.
func (r *Repository) Exists(ctx context.Context, date string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM daily_bias WHERE date = $1)`, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check date %s: %w", date, err)
	}

	return exists, nil
}

// scanRow maps one daily_bias row into a DailyRow. NULL columns land as
// nil pointers, preserving the missing-vs-zero distinction for rows
// written before newer indicator columns existed.
func scanRow(row pgx.Row) (*contracts.DailyRow, error) {
	var d contracts.DailyRow
	s := &d.Snapshot
	f := &d.Features

	var (
		fetchTS      *time.Time
		biasLabel    *string
		biasGuidance *string
		biasScore    *int
		dataComplete *int
		futuresDir   *int
		pcrChange    *float64
		vixFlag      *int
		riskFlag     *int
		spDir        *int
		fiiZ         *float64
		fiiSurprise  *float64
		diiSurprise  *float64
	)

	err := row.Scan(
		&s.Date,
		&s.FIIBuy, &s.FIISell, &s.FIINet,
		&s.DIIBuy, &s.DIISell, &s.DIINet,
		&s.FIILongOI, &s.FIIShortOI, &s.FIINetOI,
		&s.PCR, &s.TotalCallOI, &s.TotalPutOI,
		&s.VIX,
		&s.SP500Close, &s.SP500ChangePct,
		&s.GiftNifty, &s.GiftGapPct, &s.GiftSentiment,
		&s.USAvgChangePct, &s.USSentiment,
		&s.Nifty5DChangePct, &s.NiftyTrend, &s.NiftyTrendScore,
		&s.FearGreedScore, &s.FearGreedRating, &s.FearGreedSignal,
		&fiiZ, &fiiSurprise, &diiSurprise,
		&futuresDir, &pcrChange,
		&vixFlag, &riskFlag, &spDir,
		&biasScore, &biasLabel, &biasGuidance,
		&fetchTS, &dataComplete,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan daily row: %w", err)
	}

	// Derived columns default to their neutral zero when NULL.
	f.FIIZScore = floatVal(fiiZ)
	f.FIISurprise = floatVal(fiiSurprise)
	f.DIISurprise = floatVal(diiSurprise)
	f.FuturesDirection = intVal(futuresDir)
	f.PCRChange = floatVal(pcrChange)
	f.VIXFlag = intVal(vixFlag)
	f.GlobalRiskFlag = intVal(riskFlag)
	f.SP500Direction = intVal(spDir)

	d.Bias.Score = intVal(biasScore)
	if biasLabel != nil {
		d.Bias.Label = contracts.BiasLabel(*biasLabel)
	}
	if biasGuidance != nil {
		d.Bias.Guidance = *biasGuidance
	}
	if fetchTS != nil {
		d.FetchTimestamp = *fetchTS
	}
	d.DataComplete = intVal(dataComplete) == 1

	return &d, nil
}

func floatVal(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intVal(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
