package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// OptionChain fetches the NIFTY option chain and computes the OI-based
// put-call ratio for the nearest expiry.
type OptionChain struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewOptionChain creates the option chain adapter
func NewOptionChain(cfg *config.Config, client *httputil.Client, log *logger.Logger) *OptionChain {
	return &OptionChain{
		client:  client,
		baseURL: cfg.Sources.NSEBaseURL,
		logger:  log,
	}
}

// Name identifies the source in the fetch log
func (a *OptionChain) Name() string { return "option_chain" }

// Critical: missing options sentiment degrades the snapshot
func (a *OptionChain) Critical() bool { return true }

// optionChainResponse is the subset of the NSE option chain payload we
// consume. NSE serves the same shape under "records" and "filtered".
type optionChainResponse struct {
	Records  optionChainRecords `json:"records"`
	Filtered optionChainRecords `json:"filtered"`
}

type optionChainRecords struct {
	ExpiryDates []string          `json:"expiryDates"`
	Data        []optionChainItem `json:"data"`
}

type optionChainItem struct {
	ExpiryDate string      `json:"expiryDate"`
	CE         *optionSide `json:"CE"`
	PE         *optionSide `json:"PE"`
}

type optionSide struct {
	OpenInterest int64 `json:"openInterest"`
}

// Fetch retrieves the chain and computes PCR. An empty chain outside
// market hours is a valid non-error outcome: it propagates as
// contracts.ErrUnavailable and must bypass retries.
func (a *OptionChain) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	if err := a.client.WarmUp(ctx, a.baseURL); err != nil {
		return nil, fmt.Errorf("nse warmup failed: %w", err)
	}

	var resp optionChainResponse
	if err := a.client.GetJSON(ctx, a.baseURL+"/api/option-chain-indices?symbol=NIFTY", &resp); err != nil {
		return nil, err
	}

	records := resp.Records
	if len(records.Data) == 0 {
		records = resp.Filtered
	}
	if len(records.Data) == 0 {
		// Chain published only during/after market hours.
		return nil, fmt.Errorf("option chain empty, market likely closed: %w", contracts.ErrUnavailable)
	}

	rec, err := computePCR(records)
	if err != nil {
		return nil, err
	}

	a.logger.WithField("pcr", *rec.PCR).Debug("Fetched option chain PCR")

	return rec, nil
}

// computePCR sums put and call OI for the nearest expiry.
func computePCR(records optionChainRecords) (*contracts.SourceRecord, error) {
	var nearExpiry string
	if len(records.ExpiryDates) > 0 {
		nearExpiry = records.ExpiryDates[0]
	}

	var totalCE, totalPE int64
	for _, item := range records.Data {
		if nearExpiry != "" && item.ExpiryDate != nearExpiry {
			continue
		}
		if item.CE != nil {
			totalCE += item.CE.OpenInterest
		}
		if item.PE != nil {
			totalPE += item.PE.OpenInterest
		}
	}

	if totalCE == 0 {
		return nil, fmt.Errorf("option chain has no call open interest")
	}

	pcr := math.Round(float64(totalPE)/float64(totalCE)*10000) / 10000

	return &contracts.SourceRecord{
		PCR:         contracts.Float(pcr),
		TotalCallOI: contracts.Int64(totalCE),
		TotalPutOI:  contracts.Int64(totalPE),
	}, nil
}
