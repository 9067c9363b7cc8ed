package sources

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

func yahooTestClient(t *testing.T, handler http.HandlerFunc) (*YahooClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)

	cfg := &config.Config{LogLevel: "error"}
	cfg.Sources.YahooChartURL = server.URL
	cfg.Sources.RequestTimeout = 0
	cfg.Sources.YahooRatePerSec = 1000 // no throttling in tests

	log := logger.New(cfg)
	return NewYahooClient(cfg, httputil.New(cfg, log), log), server
}

func TestYahooHistory(t *testing.T) {
	payload := `{
		"chart": {
			"result": [{
				"timestamp": [1755734400, 1755820800, 1755907200],
				"indicators": {
					"quote": [{
						"close": [24500.5, null, 24610.25],
						"high": [24550.0, null, 24650.0],
						"low": [24400.0, null, 24580.0]
					}]
				}
			}],
			"error": null
		}
	}`

	y, server := yahooTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %s, want 1d", r.URL.Query().Get("interval"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	})
	defer server.Close()

	bars, err := y.History(context.Background(), "^NSEI", "5d")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}

	// The null sample is dropped.
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Close != 24500.5 {
		t.Errorf("bars[0].Close = %v, want 24500.5", bars[0].Close)
	}
	if bars[1].Close != 24610.25 {
		t.Errorf("bars[1].Close = %v, want 24610.25", bars[1].Close)
	}
}

func TestYahooHistoryAPIError(t *testing.T) {
	payload := `{
		"chart": {
			"result": null,
			"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
		}
	}`

	y, server := yahooTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	})
	defer server.Close()

	if _, err := y.History(context.Background(), "BOGUS", "5d"); err == nil {
		t.Error("expected error from the chart API error payload")
	}
}

func TestYahooLastChangePct(t *testing.T) {
	payload := `{
		"chart": {
			"result": [{
				"timestamp": [1755734400, 1755820800],
				"indicators": {
					"quote": [{
						"close": [100.0, 102.5],
						"high": [101.0, 103.0],
						"low": [99.0, 101.0]
					}]
				}
			}],
			"error": null
		}
	}`

	y, server := yahooTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	})
	defer server.Close()

	closePrice, changePct, _, err := y.LastChangePct(context.Background(), "^GSPC")
	if err != nil {
		t.Fatalf("LastChangePct() failed: %v", err)
	}

	if closePrice != 102.5 {
		t.Errorf("close = %v, want 102.5", closePrice)
	}
	if math.Abs(changePct-2.5) > 1e-9 {
		t.Errorf("changePct = %v, want 2.5", changePct)
	}
}
