package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantlab-in/niftybias/pkg/logger"
)

// migration is one schema change. Statements use IF NOT EXISTS forms so
// a re-run against an already-migrated database is a no-op even if the
// schema_migrations bookkeeping was lost.
type migration struct {
	version    int
	name       string
	statements []string
}

// migrations is the ordered, append-only migration list. The indicator
// set has grown release-over-release; historical rows keep NULL in the
// columns added after they were written, and NULL reads back as missing.
var migrations = []migration{
	{
		version: 1,
		name:    "create_daily_bias_and_fetch_log",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS daily_bias (
				id BIGSERIAL PRIMARY KEY,
				date TEXT UNIQUE NOT NULL,

				-- raw fetched data
				fii_buy DOUBLE PRECISION,
				fii_sell DOUBLE PRECISION,
				fii_net DOUBLE PRECISION,
				dii_buy DOUBLE PRECISION,
				dii_sell DOUBLE PRECISION,
				dii_net DOUBLE PRECISION,
				fii_long_oi BIGINT,
				fii_short_oi BIGINT,
				fii_net_oi BIGINT,
				pcr DOUBLE PRECISION,
				total_ce_oi BIGINT,
				total_pe_oi BIGINT,
				vix DOUBLE PRECISION,
				sp500_close DOUBLE PRECISION,
				sp500_change_pct DOUBLE PRECISION,

				-- computed features
				fii_zscore DOUBLE PRECISION,
				fii_surprise DOUBLE PRECISION,
				dii_surprise DOUBLE PRECISION,
				futures_direction INTEGER,
				pcr_change DOUBLE PRECISION,
				vix_flag INTEGER,
				global_risk_flag INTEGER,
				sp500_direction INTEGER,

				-- bias result
				bias_score INTEGER,
				bias_label TEXT,
				bias_guidance TEXT,

				-- metadata
				fetch_timestamp TIMESTAMPTZ,
				data_complete INTEGER DEFAULT 1,
				created_at TIMESTAMPTZ DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS fetch_log (
				id BIGSERIAL PRIMARY KEY,
				date TEXT NOT NULL,
				source TEXT NOT NULL,
				status TEXT NOT NULL,
				attempts INTEGER DEFAULT 1,
				error_message TEXT,
				created_at TIMESTAMPTZ DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_daily_bias_date ON daily_bias(date)`,
			`CREATE INDEX IF NOT EXISTS idx_fetch_log_date ON fetch_log(date)`,
		},
	},
	{
		version: 2,
		name:    "add_premarket_and_us_columns",
		statements: []string{
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS gift_nifty DOUBLE PRECISION`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS gift_gap_pct DOUBLE PRECISION`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS gift_sentiment TEXT`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS us_avg_chg DOUBLE PRECISION`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS us_sentiment TEXT`,
		},
	},
	{
		version: 3,
		name:    "add_trend_and_fear_greed_columns",
		statements: []string{
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS nifty_5d_chg DOUBLE PRECISION`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS nifty_trend TEXT`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS nifty_trend_score INTEGER`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS fear_greed_score DOUBLE PRECISION`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS fear_greed_rating TEXT`,
			`ALTER TABLE daily_bias ADD COLUMN IF NOT EXISTS fear_greed_signal INTEGER`,
		},
	},
}

// Migrate applies every pending migration in order. Each migration runs
// in its own transaction and is recorded in schema_migrations, so the
// call is idempotent and safe at every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		for _, stmt := range m.statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}

		log.WithFields(map[string]interface{}{
			"version": m.version,
			"name":    m.name,
		}).Info("Applied migration")
	}

	return nil
}
