package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/httputil"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// VIX fetches the India VIX level from the NSE all-indices endpoint.
type VIX struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewVIX creates the India VIX adapter
func NewVIX(cfg *config.Config, client *httputil.Client, log *logger.Logger) *VIX {
	return &VIX{
		client:  client,
		baseURL: cfg.Sources.NSEBaseURL,
		logger:  log,
	}
}

// Name identifies the source in the fetch log
func (a *VIX) Name() string { return "vix" }

// Critical: the volatility regime flag depends on this
func (a *VIX) Critical() bool { return true }

type allIndicesResponse struct {
	Data []struct {
		Index string  `json:"index"`
		Last  float64 `json:"last"`
	} `json:"data"`
}

// Fetch retrieves the current India VIX value.
func (a *VIX) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	if err := a.client.WarmUp(ctx, a.baseURL); err != nil {
		return nil, fmt.Errorf("nse warmup failed: %w", err)
	}

	var resp allIndicesResponse
	if err := a.client.GetJSON(ctx, a.baseURL+"/api/allIndices", &resp); err != nil {
		return nil, err
	}

	for _, idx := range resp.Data {
		if strings.EqualFold(strings.TrimSpace(idx.Index), "INDIA VIX") {
			a.logger.WithField("vix", idx.Last).Debug("Fetched India VIX")
			return &contracts.SourceRecord{VIX: contracts.Float(idx.Last)}, nil
		}
	}

	return nil, fmt.Errorf("INDIA VIX not present in indices response")
}
