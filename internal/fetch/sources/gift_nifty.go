package sources

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// GiftNifty estimates the pre-market NIFTY gap. When a GIFT Nifty quote
// page is configured it scrapes the live quote; otherwise it falls back
// to the US-futures correlation estimate (NIFTY opening gaps track US
// overnight moves at roughly 0.6x). Non-critical.
type GiftNifty struct {
	client   *httputil.Client
	yahoo    *YahooClient
	quoteURL string
	logger   *logger.Logger
}

// giftCorrelationFactor scales the average US overnight move into an
// expected NIFTY gap.
const giftCorrelationFactor = 0.6

// usFutures trade nearly around the clock, so they carry the overnight
// signal the cash indices miss.
var usFutures = []string{"ES=F", "NQ=F", "YM=F"}

// NewGiftNifty creates the pre-market gap adapter
func NewGiftNifty(cfg *config.Config, client *httputil.Client, yahoo *YahooClient, log *logger.Logger) *GiftNifty {
	return &GiftNifty{
		client:   client,
		yahoo:    yahoo,
		quoteURL: cfg.Sources.GiftNiftyURL,
		logger:   log,
	}
}

// Name identifies the source in the fetch log
func (a *GiftNifty) Name() string { return "gift_nifty" }

// Critical reports false: the gap estimate defaults to neutral
func (a *GiftNifty) Critical() bool { return false }

// Fetch produces the expected gap and its sentiment.
func (a *GiftNifty) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	niftyBars, err := a.yahoo.History(ctx, "^NSEI", "5d")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch NIFTY close: %w", err)
	}
	niftyClose := niftyBars[len(niftyBars)-1].Close

	if a.quoteURL != "" {
		if rec, err := a.fetchQuotePage(ctx, niftyClose); err == nil {
			return rec, nil
		} else {
			a.logger.WithError(err).Warn("GIFT Nifty quote scrape failed, using estimate")
		}
	}

	return a.estimateFromFutures(ctx, niftyClose)
}

// fetchQuotePage scrapes the configured quote page for the GIFT Nifty
// last price. The page marks the quote with a .last-price element.
func (a *GiftNifty) fetchQuotePage(ctx context.Context, niftyClose float64) (*contracts.SourceRecord, error) {
	body, err := a.client.GetBody(ctx, a.quoteURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote page: %w", err)
	}

	text := strings.TrimSpace(doc.Find(".last-price").First().Text())
	if text == "" {
		// Some mirrors render the quote into a data attribute instead.
		text, _ = doc.Find("[data-last-price]").First().Attr("data-last-price")
	}
	if text == "" {
		return nil, fmt.Errorf("quote page has no last price")
	}

	giftPrice, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable GIFT quote %q: %w", text, err)
	}

	gapPct := (giftPrice/niftyClose - 1) * 100

	return giftRecord(giftPrice, gapPct), nil
}

// estimateFromFutures derives the expected gap from US futures when no
// direct quote is available.
func (a *GiftNifty) estimateFromFutures(ctx context.Context, niftyClose float64) (*contracts.SourceRecord, error) {
	var changes []float64
	for _, symbol := range usFutures {
		_, changePct, _, err := a.yahoo.LastChangePct(ctx, symbol)
		if err != nil {
			continue
		}
		changes = append(changes, changePct)
	}

	if len(changes) == 0 {
		// No overnight signal at all: a neutral record, not a failure.
		return giftRecord(niftyClose, 0.0), nil
	}

	sum := 0.0
	for _, c := range changes {
		sum += c
	}
	gapPct := (sum / float64(len(changes))) * giftCorrelationFactor
	giftPrice := niftyClose * (1 + gapPct/100)

	return giftRecord(giftPrice, gapPct), nil
}

func giftRecord(price, gapPct float64) *contracts.SourceRecord {
	return &contracts.SourceRecord{
		GiftNifty:     contracts.Float(math.Round(price*100) / 100),
		GiftGapPct:    contracts.Float(math.Round(gapPct*100) / 100),
		GiftSentiment: contracts.Str(gapSentiment(gapPct)),
	}
}

// gapSentiment buckets the expected gap; below half a percent the open
// is treated as flat.
func gapSentiment(gapPct float64) string {
	switch {
	case gapPct > 0.5:
		return "Positive"
	case gapPct < -0.5:
		return "Negative"
	default:
		return "Neutral"
	}
}
