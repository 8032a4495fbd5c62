package arbitrage

import (
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NoOpportunityReason explains why a scan cycle produced no opportunity.
type NoOpportunityReason string

const (
	// ReasonInsufficientDepth means at least one leg could not be fully
	// filled at the configured size.
	ReasonInsufficientDepth NoOpportunityReason = "insufficient_depth"
	// ReasonAboveThreshold means the pair cost met or exceeded the target.
	ReasonAboveThreshold NoOpportunityReason = "above_threshold"
	// ReasonCooldown means an execution was accepted too recently.
	ReasonCooldown NoOpportunityReason = "cooldown"
)

// Diagnosis carries the per-cycle scan outcome for logging and the status
// endpoint. Zero-valued fields mean the gate was never reached.
type Diagnosis struct {
	Reason            NoOpportunityReason
	UpAchievable      decimal.Decimal
	DownAchievable    decimal.Decimal
	Spread            decimal.Decimal
	TotalCost         decimal.Decimal
	CooldownRemaining time.Duration
}

func (d *Diagnosis) String() string {
	switch d.Reason {
	case ReasonInsufficientDepth:
		return fmt.Sprintf("insufficient depth: up=%s down=%s achievable",
			d.UpAchievable, d.DownAchievable)
	case ReasonAboveThreshold:
		if d.TotalCost.IsZero() {
			return fmt.Sprintf("top-of-book spread %s above threshold", d.Spread)
		}
		return fmt.Sprintf("pair cost %s above threshold", d.TotalCost)
	case ReasonCooldown:
		return fmt.Sprintf("cooldown active: %s remaining", d.CooldownRemaining.Round(time.Millisecond))
	default:
		return string(d.Reason)
	}
}

// Detector evaluates book snapshots against the profitability threshold and
// rate-limits acceptances with a cooldown. Safe for use from a single scan
// goroutine; the cooldown stamp is mutex-guarded so status reads from the
// HTTP server never race it.
type Detector struct {
	logger *zap.Logger

	orderSize      decimal.Decimal
	targetPairCost decimal.Decimal
	cooldown       time.Duration

	mu              sync.Mutex
	lastExecutionAt time.Time

	// now is swapped in tests to drive the cooldown clock.
	now func() time.Time
}

// NewDetector builds a detector with the configured size, pair cost
// threshold and cooldown interval.
func NewDetector(logger *zap.Logger, orderSize, targetPairCost decimal.Decimal, cooldown time.Duration) *Detector {
	return &Detector{
		logger:         logger,
		orderSize:      orderSize,
		targetPairCost: targetPairCost,
		cooldown:       cooldown,
		now:            time.Now,
	}
}

// TryDetect runs one detection pass over a pair of snapshots. It returns a
// non-nil Opportunity only when every gate passes: both books valid, both
// legs fully fillable at the configured size, pair cost strictly below the
// threshold, and the cooldown elapsed. On acceptance the cooldown is stamped
// before returning, so a crashed or failed execution still burns the
// interval. A validation error means the snapshots are unusable and the
// caller must abort the cycle.
func (d *Detector) TryDetect(market *types.Market, upBook, downBook *orderbook.OutcomeBook) (*Opportunity, *Diagnosis, error) {
	start := time.Now()
	defer func() {
		DetectionDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if err := upBook.Validate(); err != nil {
		orderbook.InvalidSnapshotsTotal.WithLabelValues("up").Inc()
		return nil, nil, fmt.Errorf("up book: %w", err)
	}
	if err := downBook.Validate(); err != nil {
		orderbook.InvalidSnapshotsTotal.WithLabelValues("down").Inc()
		return nil, nil, fmt.Errorf("down book: %w", err)
	}

	// Top-of-book pre-gate: if even the best asks sum past the threshold,
	// no depth walk can come in under it.
	if spread, ok := EffectiveSpread(upBook, downBook); ok {
		if spread.GreaterThan(d.targetPairCost.Sub(settlementPayout)) {
			ScansNoOpportunityTotal.WithLabelValues(string(ReasonAboveThreshold)).Inc()
			return nil, &Diagnosis{
				Reason: ReasonAboveThreshold,
				Spread: spread,
			}, nil
		}
	}

	upQuote, err := orderbook.Quote(upBook, d.orderSize)
	if err != nil {
		return nil, nil, fmt.Errorf("quote up leg: %w", err)
	}
	downQuote, err := orderbook.Quote(downBook, d.orderSize)
	if err != nil {
		return nil, nil, fmt.Errorf("quote down leg: %w", err)
	}

	if !upQuote.FullyFillable || !downQuote.FullyFillable {
		ScansNoOpportunityTotal.WithLabelValues(string(ReasonInsufficientDepth)).Inc()
		return nil, &Diagnosis{
			Reason:         ReasonInsufficientDepth,
			UpAchievable:   upQuote.AchievableSize,
			DownAchievable: downQuote.AchievableSize,
		}, nil
	}

	totalCost, profitPerShare := Evaluate(upQuote, downQuote)
	if totalCost.GreaterThanOrEqual(d.targetPairCost) {
		ScansNoOpportunityTotal.WithLabelValues(string(ReasonAboveThreshold)).Inc()
		return nil, &Diagnosis{
			Reason:    ReasonAboveThreshold,
			TotalCost: totalCost,
		}, nil
	}

	d.mu.Lock()
	remaining := d.cooldown - d.now().Sub(d.lastExecutionAt)
	if !d.lastExecutionAt.IsZero() && remaining > 0 {
		d.mu.Unlock()
		ScansNoOpportunityTotal.WithLabelValues(string(ReasonCooldown)).Inc()
		OpportunitiesSuppressedTotal.Inc()
		d.logger.Debug("opportunity-suppressed-cooldown",
			zap.String("market-slug", market.Slug),
			zap.String("total-cost", totalCost.String()),
			zap.Duration("cooldown-remaining", remaining),
		)
		return nil, &Diagnosis{
			Reason:            ReasonCooldown,
			TotalCost:         totalCost,
			CooldownRemaining: remaining,
		}, nil
	}
	d.lastExecutionAt = d.now()
	d.mu.Unlock()

	opp := newOpportunity(market, upQuote, downQuote, d.orderSize)
	OpportunitiesDetectedTotal.Inc()
	d.logger.Info("opportunity-detected",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-slug", market.Slug),
		zap.String("up-price", opp.UpPrice.String()),
		zap.String("down-price", opp.DownPrice.String()),
		zap.String("total-cost", totalCost.String()),
		zap.String("profit-per-share", profitPerShare.String()),
		zap.String("order-size", d.orderSize.String()),
		zap.String("expected-profit", opp.ExpectedProfit.String()),
	)
	return opp, nil, nil
}

// CooldownRemaining reports how long until the next acceptance is allowed.
func (d *Detector) CooldownRemaining() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastExecutionAt.IsZero() {
		return 0
	}
	remaining := d.cooldown - d.now().Sub(d.lastExecutionAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
