package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// FIIDII fetches FII/DII cash market flows from the NSE trade report
// endpoint. This is the primary flow source: the trading date it reports
// becomes the snapshot's authoritative date.
type FIIDII struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewFIIDII creates the FII/DII adapter
func NewFIIDII(cfg *config.Config, client *httputil.Client, log *logger.Logger) *FIIDII {
	return &FIIDII{
		client:  client,
		baseURL: cfg.Sources.NSEBaseURL,
		logger:  log,
	}
}

// Name identifies the source in the fetch log
func (a *FIIDII) Name() string { return "fiidii" }

// Critical: missing institutional flow degrades the snapshot
func (a *FIIDII) Critical() bool { return true }

// fiidiiRow is one category row of the NSE response. Numeric fields
// arrive as strings with thousands separators.
type fiidiiRow struct {
	Category  string `json:"category"`
	Date      string `json:"date"` // "23-Jan-2026"
	BuyValue  string `json:"buyValue"`
	SellValue string `json:"sellValue"`
	NetValue  string `json:"netValue"`
}

// Fetch retrieves cash market flows for the latest trading day.
func (a *FIIDII) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	if err := a.client.WarmUp(ctx, a.baseURL); err != nil {
		return nil, fmt.Errorf("nse warmup failed: %w", err)
	}

	var rows []fiidiiRow
	if err := a.client.GetJSON(ctx, a.baseURL+"/api/fiidiiTradeReact", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fiidii report is empty")
	}

	rec, err := parseFIIDIIRows(rows)
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"fii_net": *rec.FIINet,
		"date":    derefOrEmpty(rec.ReportedDate),
	}).Debug("Fetched FII/DII flows")

	return rec, nil
}

// parseFIIDIIRows extracts FII and DII flows plus the reported trading
// date. Rows outside the cash market category are ignored.
func parseFIIDIIRows(rows []fiidiiRow) (*contracts.SourceRecord, error) {
	rec := &contracts.SourceRecord{}

	for _, row := range rows {
		cat := strings.ToUpper(row.Category)

		if rec.ReportedDate == nil && row.Date != "" {
			if parsed, err := time.Parse("02-Jan-2006", row.Date); err == nil {
				rec.ReportedDate = contracts.Str(parsed.Format("2006-01-02"))
			}
		}

		switch {
		case strings.Contains(cat, "FII") || strings.Contains(cat, "FPI"):
			rec.FIIBuy = parseCommaFloat(row.BuyValue)
			rec.FIISell = parseCommaFloat(row.SellValue)
			rec.FIINet = parseCommaFloat(row.NetValue)
		case strings.Contains(cat, "DII"):
			rec.DIIBuy = parseCommaFloat(row.BuyValue)
			rec.DIISell = parseCommaFloat(row.SellValue)
			rec.DIINet = parseCommaFloat(row.NetValue)
		}
	}

	if rec.FIINet == nil {
		return nil, fmt.Errorf("fiidii report has no FII row")
	}

	return rec, nil
}

// parseCommaFloat parses "1,234.56" style values; nil when unparseable.
func parseCommaFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return contracts.Float(v)
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
