package sources

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// YahooClient fetches daily history from the Yahoo v8 chart API. It is
// shared by every adapter that needs index closes, with a local token
// bucket so a burst of adapters does not trip Yahoo's throttling.
type YahooClient struct {
	http    *httputil.Client
	baseURL string
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewYahooClient creates the shared chart client
func NewYahooClient(cfg *config.Config, client *httputil.Client, log *logger.Logger) *YahooClient {
	return &YahooClient{
		http:    client,
		baseURL: cfg.Sources.YahooChartURL,
		limiter: rate.NewLimiter(rate.Limit(cfg.Sources.YahooRatePerSec), 1),
		logger:  log,
	}
}

// chartResponse is the subset of the Yahoo chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Bar is one daily OHLC sample (close-centric; open is unused here).
type Bar struct {
	Date  time.Time
	Close float64
	High  float64
	Low   float64
}

// History returns up to the requested range of daily bars for symbol,
// oldest first, with null samples dropped.
func (y *YahooClient) History(ctx context.Context, symbol, rangeStr string) ([]Bar, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s?range=%s&interval=1d", y.baseURL, symbol, rangeStr)

	var resp chartResponse
	if err := y.http.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart request for %s failed: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart returned no result for %s", symbol)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var bars []Bar
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo chart returned no usable bars for %s", symbol)
	}

	return bars, nil
}

// LastChangePct returns the latest close and its percent change over the
// prior close. Needs at least two bars.
func (y *YahooClient) LastChangePct(ctx context.Context, symbol string) (close float64, changePct float64, lastDate time.Time, err error) {
	bars, err := y.History(ctx, symbol, "5d")
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	if len(bars) < 2 {
		return 0, 0, time.Time{}, fmt.Errorf("insufficient history for %s", symbol)
	}

	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]
	pct := (last.Close/prev.Close - 1) * 100

	return last.Close, pct, last.Date, nil
}
