// Package position maintains the net token inventory implied by execution
// results. Two ledgers are kept: live fills and simulated dry-run fills,
// never mixed.
package position

import (
	"sync"
	"time"

	"github.com/mselser95/updown-arb/internal/execution"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// resultHistorySize bounds the in-memory ring of recent executions served
// by the status endpoint.
const resultHistorySize = 50

// Position is the net inventory in one token.
type Position struct {
	TokenID   string
	Outcome   types.Outcome
	NetSize   decimal.Decimal
	AvgPrice  decimal.Decimal
	CostBasis decimal.Decimal
	UpdatedAt time.Time
}

// ledger is one isolated set of positions with its running P&L.
type ledger struct {
	positions   map[string]*Position
	realizedPnL decimal.Decimal
	pairsOn     int
}

func newLedger() *ledger {
	return &ledger{positions: make(map[string]*Position)}
}

// buy folds a fill into the position at a size-weighted average price.
func (l *ledger) buy(tokenID string, outcome types.Outcome, size, price decimal.Decimal) {
	pos, ok := l.positions[tokenID]
	if !ok {
		pos = &Position{TokenID: tokenID, Outcome: outcome}
		l.positions[tokenID] = pos
	}

	newSize := pos.NetSize.Add(size)
	pos.CostBasis = pos.CostBasis.Add(size.Mul(price))
	pos.NetSize = newSize
	if newSize.IsPositive() {
		pos.AvgPrice = pos.CostBasis.Div(newSize)
	}
	pos.UpdatedAt = time.Now()
}

// sell reduces the position and realizes P&L against the average price.
func (l *ledger) sell(tokenID string, size, price decimal.Decimal) {
	pos, ok := l.positions[tokenID]
	if !ok {
		return
	}

	realized := price.Sub(pos.AvgPrice).Mul(size)
	l.realizedPnL = l.realizedPnL.Add(realized)

	pos.NetSize = pos.NetSize.Sub(size)
	pos.CostBasis = pos.CostBasis.Sub(size.Mul(pos.AvgPrice))
	if pos.NetSize.IsZero() {
		pos.CostBasis = decimal.Zero
	}
	pos.UpdatedAt = time.Now()
}

// Tracker implements execution.Recorder. All methods are safe for
// concurrent use; the HTTP server reads snapshots while the trading loop
// records.
type Tracker struct {
	logger *zap.Logger

	mu        sync.Mutex
	live      *ledger
	simulated *ledger
	results   []*execution.Result
	counts    map[execution.Outcome]int
}

// NewTracker creates an empty tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		logger:    logger,
		live:      newLedger(),
		simulated: newLedger(),
		counts:    make(map[execution.Outcome]int),
	}
}

// Record folds one execution result into the appropriate ledger. Partial
// fills with a successful unwind net out to the realized slippage; failed
// unwinds leave the residual exposure visible in the snapshot.
func (t *Tracker) Record(result *execution.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[result.Outcome]++
	t.results = append(t.results, result)
	if len(t.results) > resultHistorySize {
		t.results = t.results[len(t.results)-resultHistorySize:]
	}

	book := t.live
	if result.DryRun {
		book = t.simulated
	}

	for _, leg := range []*execution.LegResult{&result.UpLeg, &result.DownLeg} {
		if leg.FilledSize.IsPositive() {
			book.buy(leg.TokenID, leg.Outcome, leg.FilledSize, leg.Price)
		}
	}

	switch result.Outcome {
	case execution.OutcomeBothFilled, execution.OutcomeSimulated:
		book.pairsOn++
		book.realizedPnL = book.realizedPnL.Add(result.ExpectedEdge)
	case execution.OutcomePartialFill:
		if result.Unwind != nil && result.Unwind.Succeeded {
			filled := result.FilledLeg()
			if filled != nil {
				book.sell(filled.TokenID, result.Unwind.Size, result.Unwind.Price)
			}
		} else if filled := result.FilledLeg(); filled != nil {
			ExposedPositionsGauge.Inc()
			t.logger.Warn("exposure-unresolved",
				zap.String("token-id", filled.TokenID),
				zap.String("size", result.ExposedSize().String()))
		}
	}

	PositionsOpenGauge.Set(float64(len(book.positions)))
	pnl, _ := book.realizedPnL.Float64()
	RealizedPnLGauge.WithLabelValues(ledgerLabel(result.DryRun)).Set(pnl)
}

func ledgerLabel(dryRun bool) string {
	if dryRun {
		return "simulated"
	}
	return "live"
}

// Snapshot is a point-in-time copy of one ledger.
type Snapshot struct {
	Positions   []Position
	RealizedPnL decimal.Decimal
	PairsOn     int
}

// Snapshot copies the requested ledger for external readers.
func (t *Tracker) Snapshot(dryRun bool) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	book := t.live
	if dryRun {
		book = t.simulated
	}

	snap := Snapshot{
		RealizedPnL: book.realizedPnL,
		PairsOn:     book.pairsOn,
	}
	for _, pos := range book.positions {
		snap.Positions = append(snap.Positions, *pos)
	}
	return snap
}

// RecentResults returns up to limit most recent execution results, newest
// last.
func (t *Tracker) RecentResults(limit int) []*execution.Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.results) {
		limit = len(t.results)
	}
	out := make([]*execution.Result, limit)
	copy(out, t.results[len(t.results)-limit:])
	return out
}

// OutcomeCounts returns the tally of executions by outcome.
func (t *Tracker) OutcomeCounts() map[execution.Outcome]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[execution.Outcome]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
