package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/quantlab-in/niftybias/internal/bias"
	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/internal/pipeline"
	"github.com/quantlab-in/niftybias/pkg/logger"
	"github.com/quantlab-in/niftybias/pkg/redis"
)

// BiasHandler handles bias-related API endpoints
type BiasHandler struct {
	store   contracts.Store
	biasEng *bias.Engine
	runner  *pipeline.Runner
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewBiasHandler creates a new bias handler
func NewBiasHandler(
	store contracts.Store,
	biasEng *bias.Engine,
	runner *pipeline.Runner,
	cache *redis.Cache,
	log *logger.Logger,
) *BiasHandler {
	return &BiasHandler{
		store:   store,
		biasEng: biasEng,
		runner:  runner,
		cache:   cache,
		logger:  log,
	}
}

// BiasRowResponse is the JSON shape of one daily row.
type BiasRowResponse struct {
	Date           string               `json:"date"`
	Score          int                  `json:"score"`
	Label          contracts.BiasLabel  `json:"label"`
	Guidance       string               `json:"guidance"`
	Components     map[string]int       `json:"components,omitempty"`
	Features       contracts.FeatureSet `json:"features"`
	FIINet         *float64             `json:"fii_net,omitempty"`
	DIINet         *float64             `json:"dii_net,omitempty"`
	FIINetOI       *int64               `json:"fii_net_oi,omitempty"`
	PCR            *float64             `json:"pcr,omitempty"`
	VIX            *float64             `json:"vix,omitempty"`
	SP500ChangePct *float64             `json:"sp500_chg_pct,omitempty"`
	GiftGapPct     *float64             `json:"gift_gap_pct,omitempty"`
	USAvgChangePct *float64             `json:"us_avg_chg_pct,omitempty"`
	NiftyTrend     *string              `json:"nifty_trend,omitempty"`
	FearGreedScore *float64             `json:"fear_greed_score,omitempty"`
	DataComplete   bool                 `json:"data_complete"`
	FetchTimestamp time.Time            `json:"fetch_timestamp"`
}

func toBiasRowResponse(row *contracts.DailyRow) *BiasRowResponse {
	return &BiasRowResponse{
		Date:           row.Date(),
		Score:          row.Bias.Score,
		Label:          row.Bias.Label,
		Guidance:       row.Bias.Guidance,
		Components:     row.Bias.Components,
		Features:       row.Features,
		FIINet:         row.Snapshot.FIINet,
		DIINet:         row.Snapshot.DIINet,
		FIINetOI:       row.Snapshot.FIINetOI,
		PCR:            row.Snapshot.PCR,
		VIX:            row.Snapshot.VIX,
		SP500ChangePct: row.Snapshot.SP500ChangePct,
		GiftGapPct:     row.Snapshot.GiftGapPct,
		USAvgChangePct: row.Snapshot.USAvgChangePct,
		NiftyTrend:     row.Snapshot.NiftyTrend,
		FearGreedScore: row.Snapshot.FearGreedScore,
		DataComplete:   row.DataComplete,
		FetchTimestamp: row.FetchTimestamp,
	}
}

// GetLatest returns the most recent daily row
// GET /api/bias/latest
func (h *BiasHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis.LatestBiasKey()
	var cached BiasRowResponse
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	row, err := h.store.ReadLatest(ctx)
	if err != nil {
		if errors.Is(err, contracts.ErrNoRows) {
			respondError(w, http.StatusNotFound, "No bias data available yet")
			return
		}
		h.logger.WithError(err).Error("Failed to read latest bias")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest bias")
		return
	}

	resp := toBiasRowResponse(row)
	if err := h.cache.Set(ctx, cacheKey, resp, redis.TTLShort); err != nil {
		h.logger.WithError(err).Warn("Failed to cache latest bias")
	}

	respondJSON(w, http.StatusOK, resp)
}

// BreakdownResponse pairs the classification with its component inputs.
type BreakdownResponse struct {
	Date       string                 `json:"date"`
	Score      int                    `json:"score"`
	Label      contracts.BiasLabel    `json:"label"`
	Guidance   string                 `json:"guidance"`
	Components []bias.ComponentDetail `json:"components"`
}

// GetBreakdown returns the per-component detail for the latest row
// GET /api/bias/latest/breakdown
func (h *BiasHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	row, err := h.store.ReadLatest(ctx)
	if err != nil {
		if errors.Is(err, contracts.ErrNoRows) {
			respondError(w, http.StatusNotFound, "No bias data available yet")
			return
		}
		h.logger.WithError(err).Error("Failed to read latest bias")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest bias")
		return
	}

	respondJSON(w, http.StatusOK, &BreakdownResponse{
		Date:       row.Date(),
		Score:      row.Bias.Score,
		Label:      row.Bias.Label,
		Guidance:   row.Bias.Guidance,
		Components: h.biasEng.Breakdown(row.Features, &row.Snapshot),
	})
}

// GetHistory returns the last N days of rows, oldest first
// GET /api/bias/history?days=30
func (h *BiasHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 365 {
			respondError(w, http.StatusBadRequest, "Invalid 'days' parameter (expected 1-365)")
			return
		}
		days = parsed
	}

	cacheKey := redis.HistoryKey(days)
	var cached []*BiasRowResponse
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	rows, err := h.store.ReadHistory(ctx, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read bias history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve bias history")
		return
	}

	resp := make([]*BiasRowResponse, len(rows))
	for i, row := range rows {
		resp[i] = toBiasRowResponse(row)
	}

	if err := h.cache.Set(ctx, cacheKey, resp, redis.TTLShort); err != nil {
		h.logger.WithError(err).Warn("Failed to cache bias history")
	}

	respondJSON(w, http.StatusOK, resp)
}

// RunResponse acknowledges a triggered pipeline run.
type RunResponse struct {
	Status string `json:"status"`
	Date   string `json:"date"`
}

// Run triggers the daily pipeline out of schedule
// POST /api/bias/run?date=YYYY-MM-DD
func (h *BiasHandler) Run(w http.ResponseWriter, r *http.Request) {
	target := time.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' parameter (expected YYYY-MM-DD)")
			return
		}
		target = parsed
	}

	runDate := target.Format("2006-01-02")
	h.logger.WithField("date", runDate).Info("Pipeline run triggered via API")

	// Retries can hold a run open for minutes, past any sane request
	// timeout. Accept and run in the background.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := h.runner.RunDaily(ctx, target); err != nil {
			h.logger.WithError(err).WithField("date", runDate).Error("Triggered pipeline run failed")
			return
		}

		if err := h.cache.Delete(ctx, redis.LatestBiasKey()); err != nil {
			h.logger.WithError(err).Warn("Failed to invalidate latest bias cache")
		}
	}()

	respondJSON(w, http.StatusAccepted, RunResponse{
		Status: "accepted",
		Date:   runDate,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
