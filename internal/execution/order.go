package execution

import (
	"time"

	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TimeInForce controls how an order rests on the CLOB.
type TimeInForce string

const (
	// TimeInForceFOK fills the whole order immediately or kills it.
	TimeInForceFOK TimeInForce = "FOK"
	// TimeInForceFAK fills what it can immediately and kills the rest.
	TimeInForceFAK TimeInForce = "FAK"
	// TimeInForceGTC rests on the book until filled or cancelled.
	TimeInForceGTC TimeInForce = "GTC"
)

// OrderStatus is the lifecycle state of a submitted order.
type OrderStatus string

const (
	StatusSubmitted       OrderStatus = "SUBMITTED"
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// IsTerminal reports whether the order can no longer change state.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// OrderRequest is one leg to submit.
type OrderRequest struct {
	TokenID     string
	Outcome     types.Outcome
	Side        Side
	Price       decimal.Decimal
	Size        decimal.Decimal
	TimeInForce TimeInForce
}

// OrderAck is the exchange's immediate response to a submission.
type OrderAck struct {
	OrderID string
	Status  OrderStatus
}

// OrderState is a polled snapshot of a resting order.
type OrderState struct {
	OrderID      string
	Status       OrderStatus
	OriginalSize decimal.Decimal
	MatchedSize  decimal.Decimal
	Price        decimal.Decimal
}

// Filled reports whether the order matched in full.
func (s *OrderState) Filled() bool {
	if s.Status == StatusFilled {
		return true
	}
	return s.OriginalSize.IsPositive() && s.MatchedSize.GreaterThanOrEqual(s.OriginalSize)
}

// Outcome classifies how a paired execution ended.
type Outcome string

const (
	// OutcomeBothFilled means both legs filled in full: the riskless pair
	// is on.
	OutcomeBothFilled Outcome = "BOTH_FILLED"
	// OutcomePartialFill means exactly one leg filled, leaving directional
	// exposure that the unwind path must flatten.
	OutcomePartialFill Outcome = "PARTIAL_FILL"
	// OutcomeNeitherFilled means no leg filled: nothing to do.
	OutcomeNeitherFilled Outcome = "NEITHER_FILLED"
	// OutcomeSimulated means a dry-run execution that assumed full fills
	// at the quoted prices.
	OutcomeSimulated Outcome = "SIMULATED"
	// OutcomeSkipped means the execution was never attempted, e.g. the
	// balance check failed.
	OutcomeSkipped Outcome = "SKIPPED"
)

// LegResult is the final state of one leg of a paired execution.
type LegResult struct {
	Outcome    types.Outcome
	TokenID    string
	OrderID    string
	Status     OrderStatus
	Price      decimal.Decimal
	FilledSize decimal.Decimal
	Filled     bool
	Err        error
}

// UnwindResult describes the single compensating sell attempted after a
// partial fill.
type UnwindResult struct {
	Attempted bool
	Succeeded bool
	OrderID   string
	Price     decimal.Decimal
	Size      decimal.Decimal
	Err       error
}

// Result is the full record of one paired execution attempt. Consumed by
// the position tracker and the storage layer.
type Result struct {
	OpportunityID string
	MarketSlug    string
	Outcome       Outcome
	UpLeg         LegResult
	DownLeg       LegResult
	Unwind        *UnwindResult
	Cost          decimal.Decimal
	ExpectedEdge  decimal.Decimal
	DryRun        bool
	ExecutedAt    time.Time
	Duration      time.Duration
	Err           error
}

// FilledLeg returns the leg carrying the larger fill, nil when the fills
// are balanced. A cancelled or killed order can still carry a non-zero
// match, so legs are compared by matched size, never by status.
func (r *Result) FilledLeg() *LegResult {
	switch {
	case r.UpLeg.FilledSize.GreaterThan(r.DownLeg.FilledSize):
		return &r.UpLeg
	case r.DownLeg.FilledSize.GreaterThan(r.UpLeg.FilledSize):
		return &r.DownLeg
	default:
		return nil
	}
}

// UnfilledLeg returns the leg carrying the smaller fill, nil when the
// fills are balanced.
func (r *Result) UnfilledLeg() *LegResult {
	switch {
	case r.UpLeg.FilledSize.GreaterThan(r.DownLeg.FilledSize):
		return &r.DownLeg
	case r.DownLeg.FilledSize.GreaterThan(r.UpLeg.FilledSize):
		return &r.UpLeg
	default:
		return nil
	}
}

// ExposedSize is the unmatched share imbalance between the two legs.
func (r *Result) ExposedSize() decimal.Decimal {
	return r.UpLeg.FilledSize.Sub(r.DownLeg.FilledSize).Abs()
}
