package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is the spacing between order state polls.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultPollTimeout bounds how long a leg may stay non-terminal
	// before it is treated as unfilled.
	DefaultPollTimeout = 3 * time.Second
)

// defaultSimBalance is the simulated bankroll when none is configured.
var defaultSimBalance = decimal.NewFromInt(100)

// Transport is the slice of the CLOB API the engine needs. The REST client
// implements it; tests substitute fakes.
type Transport interface {
	SubmitOrder(ctx context.Context, req *OrderRequest) (*OrderAck, error)
	PollOrder(ctx context.Context, orderID string) (*OrderState, error)
	CancelOrder(ctx context.Context, orderID string) error
	FetchBook(ctx context.Context, tokenID string, outcome types.Outcome) (*orderbook.OutcomeBook, error)
}

// BalanceSource reports spendable collateral.
type BalanceSource interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// Recorder receives every execution result. The position tracker implements
// it.
type Recorder interface {
	Record(result *Result)
}

// Config holds engine configuration.
type Config struct {
	Logger        *zap.Logger
	Transport     Transport
	Balance       BalanceSource
	Recorder      Recorder
	DryRun        bool
	OrderType     TimeInForce
	BalanceMargin decimal.Decimal
	SimBalance    decimal.Decimal
	PollInterval  time.Duration
	PollTimeout   time.Duration
}

// Engine turns accepted opportunities into paired CLOB orders and drives
// them to a terminal classification. One execution runs at a time; the scan
// loop blocks on Execute.
type Engine struct {
	logger        *zap.Logger
	transport     Transport
	balance       BalanceSource
	recorder      Recorder
	dryRun        bool
	orderType     TimeInForce
	balanceMargin decimal.Decimal
	pollInterval  time.Duration
	pollTimeout   time.Duration

	// simMu guards the simulated bankroll; the status endpoint may read
	// it while the scan loop executes.
	simMu      sync.Mutex
	simBalance decimal.Decimal
}

// New creates an execution engine.
func New(cfg *Config) *Engine {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	simBalance := cfg.SimBalance
	if !simBalance.IsPositive() {
		simBalance = defaultSimBalance
	}
	return &Engine{
		logger:        cfg.Logger,
		transport:     cfg.Transport,
		balance:       cfg.Balance,
		recorder:      cfg.Recorder,
		dryRun:        cfg.DryRun,
		orderType:     cfg.OrderType,
		balanceMargin: cfg.BalanceMargin,
		pollInterval:  pollInterval,
		pollTimeout:   pollTimeout,
		simBalance:    simBalance,
	}
}

// SimBalance returns the remaining simulated bankroll.
func (e *Engine) SimBalance() decimal.Decimal {
	e.simMu.Lock()
	defer e.simMu.Unlock()
	return e.simBalance
}

// Execute runs one paired execution for an accepted opportunity. It always
// returns a Result and always records it, whatever the outcome. Both legs
// are submitted concurrently, then polled concurrently to a terminal state;
// a leg that is still non-terminal at the poll timeout is cancelled and
// counted as unfilled, never assumed filled.
func (e *Engine) Execute(ctx context.Context, opp *arbitrage.Opportunity) *Result {
	start := time.Now()
	defer func() {
		ExecutionDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	result := e.run(ctx, opp, start)
	result.Duration = time.Since(start)

	ExecutionsTotal.WithLabelValues(string(result.Outcome)).Inc()
	if e.recorder != nil {
		e.recorder.Record(result)
	}
	return result
}

func (e *Engine) run(ctx context.Context, opp *arbitrage.Opportunity, start time.Time) *Result {
	result := &Result{
		OpportunityID: opp.ID,
		MarketSlug:    opp.Market.Slug,
		Cost:          opp.TotalCost,
		ExpectedEdge:  opp.ExpectedProfit,
		DryRun:        e.dryRun,
		ExecutedAt:    start,
	}

	if e.dryRun {
		return e.simulate(opp, result)
	}

	if err := e.checkBalance(ctx, opp); err != nil {
		e.logger.Warn("execution-skipped",
			zap.String("opportunity-id", opp.ID),
			zap.Error(err))
		result.Outcome = OutcomeSkipped
		result.Err = err
		return result
	}

	upReq := &OrderRequest{
		TokenID:     opp.Market.UpTokenID,
		Outcome:     types.OutcomeUp,
		Side:        SideBuy,
		Price:       opp.UpPrice,
		Size:        opp.OrderSize,
		TimeInForce: e.orderType,
	}
	downReq := &OrderRequest{
		TokenID:     opp.Market.DownTokenID,
		Outcome:     types.OutcomeDown,
		Side:        SideBuy,
		Price:       opp.DownPrice,
		Size:        opp.OrderSize,
		TimeInForce: e.orderType,
	}

	e.logger.Info("placing-orders",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-slug", opp.Market.Slug),
		zap.String("up-price", opp.UpPrice.String()),
		zap.String("down-price", opp.DownPrice.String()),
		zap.String("size", opp.OrderSize.String()),
		zap.String("order-type", string(e.orderType)))

	// Submit both legs concurrently and join before any polling starts.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.UpLeg = e.submitLeg(ctx, upReq)
	}()
	go func() {
		defer wg.Done()
		result.DownLeg = e.submitLeg(ctx, downReq)
	}()
	wg.Wait()

	// Poll each submitted leg to a terminal state, again concurrently.
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.settleLeg(ctx, &result.UpLeg)
	}()
	go func() {
		defer wg.Done()
		e.settleLeg(ctx, &result.DownLeg)
	}()
	wg.Wait()

	return e.classify(ctx, opp, result)
}

// simulate drives a dry-run execution through the same result and recording
// path as a live one, assuming full fills at the quoted worst prices. The
// simulated bankroll is debited per trade and refuses trades it cannot
// cover, mirroring the live balance gate.
func (e *Engine) simulate(opp *arbitrage.Opportunity, result *Result) *Result {
	e.simMu.Lock()
	if e.simBalance.LessThan(opp.TotalInvestment) {
		available := e.simBalance
		e.simMu.Unlock()
		e.logger.Warn("execution-skipped",
			zap.String("opportunity-id", opp.ID),
			zap.String("required", opp.TotalInvestment.String()),
			zap.String("sim-balance", available.String()))
		result.Outcome = OutcomeSkipped
		result.Err = fmt.Errorf("insufficient simulated balance: have %s, need %s",
			available, opp.TotalInvestment)
		return result
	}
	e.simBalance = e.simBalance.Sub(opp.TotalInvestment)
	remaining := e.simBalance
	e.simMu.Unlock()

	result.Outcome = OutcomeSimulated
	result.UpLeg = LegResult{
		Outcome:    types.OutcomeUp,
		TokenID:    opp.Market.UpTokenID,
		Status:     StatusFilled,
		Price:      opp.UpPrice,
		FilledSize: opp.OrderSize,
		Filled:     true,
	}
	result.DownLeg = LegResult{
		Outcome:    types.OutcomeDown,
		TokenID:    opp.Market.DownTokenID,
		Status:     StatusFilled,
		Price:      opp.DownPrice,
		FilledSize: opp.OrderSize,
		Filled:     true,
	}

	e.logger.Info("dry-run-execution",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-slug", opp.Market.Slug),
		zap.String("up-price", opp.UpPrice.String()),
		zap.String("down-price", opp.DownPrice.String()),
		zap.String("size", opp.OrderSize.String()),
		zap.String("expected-profit", opp.ExpectedProfit.String()),
		zap.String("sim-balance", remaining.String()))

	return result
}

func (e *Engine) checkBalance(ctx context.Context, opp *arbitrage.Opportunity) error {
	if e.balance == nil {
		return nil
	}
	balance, err := e.balance.Balance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}
	required := opp.TotalInvestment.Mul(e.balanceMargin)
	if balance.LessThan(required) {
		return fmt.Errorf("insufficient balance: have %s, need %s", balance, required)
	}
	return nil
}

func (e *Engine) submitLeg(ctx context.Context, req *OrderRequest) LegResult {
	leg := LegResult{
		Outcome: req.Outcome,
		TokenID: req.TokenID,
		Price:   req.Price,
	}

	ack, err := e.transport.SubmitOrder(ctx, req)
	if err != nil {
		leg.Status = StatusRejected
		leg.Err = err
		SubmissionErrorsTotal.WithLabelValues(string(req.Outcome)).Inc()
		e.logger.Error("order-submission-failed",
			zap.String("outcome", string(req.Outcome)),
			zap.String("token-id", req.TokenID),
			zap.Error(err))
		return leg
	}

	leg.OrderID = ack.OrderID
	leg.Status = ack.Status
	return leg
}

// settleLeg polls a submitted leg until it reaches a terminal state or the
// poll timeout expires. A leg that never went terminal, or whose state was
// unobservable, is counted as unfilled and left for classify to cancel.
func (e *Engine) settleLeg(ctx context.Context, leg *LegResult) {
	if leg.OrderID == "" {
		return
	}

	deadline := time.Now().Add(e.pollTimeout)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		state, err := e.transport.PollOrder(ctx, leg.OrderID)
		if err == nil {
			leg.Status = state.Status
			leg.FilledSize = state.MatchedSize
			if !state.Price.IsZero() {
				leg.Price = state.Price
			}
			if state.Status.IsTerminal() {
				leg.Filled = state.Filled()
				return
			}
		} else {
			PollErrorsTotal.Inc()
			e.logger.Warn("order-poll-failed",
				zap.String("order-id", leg.OrderID),
				zap.Error(err))
		}

		if time.Now().After(deadline) {
			PollTimeoutsTotal.Inc()
			e.logger.Warn("order-poll-timeout",
				zap.String("order-id", leg.OrderID),
				zap.String("last-status", string(leg.Status)))
			leg.Filled = false
			return
		}

		select {
		case <-ctx.Done():
			leg.Filled = false
			return
		case <-ticker.C:
		}
	}
}

// classify maps the two settled legs onto the execution outcome. Any leg
// left non-terminal is cancelled first so a resting order cannot fill after
// the pair was judged broken. Legs are judged by matched size, never by
// status: a killed FAK or a cancelled order can carry a non-zero partial
// match, and those shares are live exposure like any other fill. Equal
// fills on both legs form a balanced pair; any imbalance goes through the
// unwind path for exactly the unmatched size.
func (e *Engine) classify(ctx context.Context, opp *arbitrage.Opportunity, result *Result) *Result {
	e.cancelIfResting(ctx, &result.UpLeg)
	e.cancelIfResting(ctx, &result.DownLeg)

	upFill := result.UpLeg.FilledSize
	downFill := result.DownLeg.FilledSize
	exposure := result.ExposedSize()

	switch {
	case upFill.IsPositive() && downFill.IsPositive() && exposure.IsZero():
		result.Outcome = OutcomeBothFilled
		e.logger.Info("execution-complete",
			zap.String("opportunity-id", opp.ID),
			zap.String("market-slug", opp.Market.Slug),
			zap.String("up-order-id", result.UpLeg.OrderID),
			zap.String("down-order-id", result.DownLeg.OrderID),
			zap.String("filled-size", upFill.String()),
			zap.String("expected-profit", opp.ExpectedProfit.String()))

	case upFill.IsPositive() || downFill.IsPositive():
		result.Outcome = OutcomePartialFill
		exposed := result.FilledLeg()
		e.logger.Warn("partial-fill-detected",
			zap.String("opportunity-id", opp.ID),
			zap.String("market-slug", opp.Market.Slug),
			zap.String("exposed-outcome", string(exposed.Outcome)),
			zap.String("exposed-status", string(exposed.Status)),
			zap.String("exposed-size", exposure.String()))
		PartialFillsTotal.Inc()
		result.Unwind = e.unwind(ctx, opp, exposed, exposure)

	default:
		result.Outcome = OutcomeNeitherFilled
		e.logger.Info("execution-unfilled",
			zap.String("opportunity-id", opp.ID),
			zap.String("market-slug", opp.Market.Slug),
			zap.String("up-status", string(result.UpLeg.Status)),
			zap.String("down-status", string(result.DownLeg.Status)))
	}

	return result
}

// cancelIfResting cancels a leg that is still non-terminal, e.g. an open
// GTC order left on the book after the poll timeout. Best effort: a failed
// cancel is logged and the leg stays counted as unfilled.
func (e *Engine) cancelIfResting(ctx context.Context, leg *LegResult) {
	if leg.OrderID == "" || leg.Status.IsTerminal() {
		return
	}
	if err := e.transport.CancelOrder(ctx, leg.OrderID); err != nil {
		CancelErrorsTotal.Inc()
		e.logger.Error("order-cancel-failed",
			zap.String("order-id", leg.OrderID),
			zap.Error(err))
		return
	}
	leg.Status = StatusCancelled
	e.logger.Info("resting-order-cancelled",
		zap.String("order-id", leg.OrderID),
		zap.String("outcome", string(leg.Outcome)))
}
