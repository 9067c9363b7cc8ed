package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// FuturesOI fetches the NSE F&O participant-wise open interest report
// and extracts the FII index futures long/short positions.
type FuturesOI struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger

	// now is swapped out in tests
	now func() time.Time
}

// NewFuturesOI creates the futures OI adapter
func NewFuturesOI(cfg *config.Config, client *httputil.Client, log *logger.Logger) *FuturesOI {
	return &FuturesOI{
		client:  client,
		baseURL: cfg.Sources.NSEBaseURL,
		logger:  log,
		now:     time.Now,
	}
}

// Name identifies the source in the fetch log
func (a *FuturesOI) Name() string { return "futures_oi" }

// Critical: missing OI positioning degrades the snapshot
func (a *FuturesOI) Critical() bool { return true }

// Fetch downloads today's participant OI CSV. The report is published
// end-of-day; a 404 before publication surfaces as a retryable error.
func (a *FuturesOI) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	dateStr := a.now().Format("02012006") // DDMMYYYY, NSE's archive naming
	url := fmt.Sprintf("%s/content/nsccl/fao_participant_oi_%s.csv", a.baseURL, dateStr)

	body, err := a.client.GetBody(ctx, url)
	if err != nil {
		return nil, err
	}

	rec, err := parseParticipantOI(body)
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"fii_long_oi":  *rec.FIILongOI,
		"fii_short_oi": *rec.FIIShortOI,
		"fii_net_oi":   *rec.FIINetOI,
	}).Debug("Fetched futures OI")

	return rec, nil
}

// parseParticipantOI finds the FII/FPI row in the participant OI CSV.
// Columns: Client Type, Future Index Long, Future Index Short, ...
// The file sometimes carries a title line before the header.
func parseParticipantOI(body []byte) (*contracts.SourceRecord, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1 // title/footer lines have odd widths

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse participant OI csv: %w", err)
	}

	for _, record := range records {
		if len(record) < 3 {
			continue
		}
		client := strings.ToUpper(strings.TrimSpace(record[0]))
		if !strings.Contains(client, "FII") && !strings.Contains(client, "FPI") {
			continue
		}

		long, err1 := parseCommaInt(record[1])
		short, err2 := parseCommaInt(record[2])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("failed to parse FII OI values: long=%q short=%q", record[1], record[2])
		}

		return &contracts.SourceRecord{
			FIILongOI:  contracts.Int64(long),
			FIIShortOI: contracts.Int64(short),
			FIINetOI:   contracts.Int64(long - short),
		}, nil
	}

	return nil, fmt.Errorf("participant OI csv has no FII row")
}

func parseCommaInt(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	return strconv.ParseInt(s, 10, 64)
}
