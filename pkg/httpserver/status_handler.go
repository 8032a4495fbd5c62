package httpserver

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/execution"
	"github.com/mselser95/updown-arb/internal/position"
	"github.com/mselser95/updown-arb/pkg/types"
)

type statusHandler struct {
	tracker       *position.Tracker
	detector      *arbitrage.Detector
	engine        *execution.Engine
	dryRun        bool
	currentMarket func() *types.Market
	logger        *zap.Logger
}

func newStatusHandler(cfg *Config) *statusHandler {
	return &statusHandler{
		tracker:       cfg.Tracker,
		detector:      cfg.Detector,
		engine:        cfg.Engine,
		dryRun:        cfg.DryRun,
		currentMarket: cfg.CurrentMarket,
		logger:        cfg.Logger,
	}
}

type statusResponse struct {
	DryRun            bool           `json:"dry_run"`
	MarketSlug        string         `json:"market_slug,omitempty"`
	MarketQuestion    string         `json:"market_question,omitempty"`
	TimeRemaining     string         `json:"time_remaining,omitempty"`
	CooldownRemaining string         `json:"cooldown_remaining,omitempty"`
	SimBalance        string         `json:"sim_balance,omitempty"`
	PairsOn           int            `json:"pairs_on"`
	RealizedPnL       string         `json:"realized_pnl"`
	OutcomeCounts     map[string]int `json:"outcome_counts"`
}

func (h *statusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.tracker.Snapshot(h.dryRun)

	resp := statusResponse{
		DryRun:        h.dryRun,
		PairsOn:       snap.PairsOn,
		RealizedPnL:   snap.RealizedPnL.String(),
		OutcomeCounts: make(map[string]int),
	}
	for outcome, count := range h.tracker.OutcomeCounts() {
		resp.OutcomeCounts[string(outcome)] = count
	}

	if h.currentMarket != nil {
		if market := h.currentMarket(); market != nil {
			resp.MarketSlug = market.Slug
			resp.MarketQuestion = market.Question
			resp.TimeRemaining = market.TimeRemainingString()
		}
	}
	if h.detector != nil {
		resp.CooldownRemaining = h.detector.CooldownRemaining().String()
	}
	if h.dryRun && h.engine != nil {
		resp.SimBalance = h.engine.SimBalance().String()
	}

	writeJSON(w, h.logger, resp)
}

type positionResponse struct {
	TokenID  string `json:"token_id"`
	Outcome  string `json:"outcome"`
	NetSize  string `json:"net_size"`
	AvgPrice string `json:"avg_price"`
}

func (h *statusHandler) handlePositions(w http.ResponseWriter, r *http.Request) {
	snap := h.tracker.Snapshot(h.dryRun)

	out := make([]positionResponse, 0, len(snap.Positions))
	for _, pos := range snap.Positions {
		out = append(out, positionResponse{
			TokenID:  pos.TokenID,
			Outcome:  string(pos.Outcome),
			NetSize:  pos.NetSize.String(),
			AvgPrice: pos.AvgPrice.String(),
		})
	}
	writeJSON(w, h.logger, out)
}

type resultResponse struct {
	OpportunityID string `json:"opportunity_id"`
	MarketSlug    string `json:"market_slug"`
	Outcome       string `json:"outcome"`
	DryRun        bool   `json:"dry_run"`
	ExecutedAt    string `json:"executed_at"`
	UpStatus      string `json:"up_status"`
	DownStatus    string `json:"down_status"`
}

func (h *statusHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results := h.tracker.RecentResults(limit)
	out := make([]resultResponse, 0, len(results))
	for _, result := range results {
		out = append(out, resultResponse{
			OpportunityID: result.OpportunityID,
			MarketSlug:    result.MarketSlug,
			Outcome:       string(result.Outcome),
			DryRun:        result.DryRun,
			ExecutedAt:    result.ExecutedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpStatus:      string(result.UpLeg.Status),
			DownStatus:    string(result.DownLeg.Status),
		})
	}
	writeJSON(w, h.logger, out)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write-response-failed", zap.Error(err))
	}
}
