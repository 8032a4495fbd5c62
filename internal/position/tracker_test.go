package position

import (
	"fmt"
	"testing"
	"time"

	"github.com/mselser95/updown-arb/internal/execution"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func bothFilledResult(id, upPrice, downPrice, size string) *execution.Result {
	return &execution.Result{
		OpportunityID: id,
		MarketSlug:    "btc-updown-15m-1765301400",
		Outcome:       execution.OutcomeBothFilled,
		UpLeg: execution.LegResult{
			Outcome:    types.OutcomeUp,
			TokenID:    "token-up",
			Status:     execution.StatusFilled,
			Price:      dec(upPrice),
			FilledSize: dec(size),
			Filled:     true,
		},
		DownLeg: execution.LegResult{
			Outcome:    types.OutcomeDown,
			TokenID:    "token-down",
			Status:     execution.StatusFilled,
			Price:      dec(downPrice),
			FilledSize: dec(size),
			Filled:     true,
		},
		ExpectedEdge: decimal.NewFromInt(1).Sub(dec(upPrice)).Sub(dec(downPrice)).Mul(dec(size)),
		ExecutedAt:   time.Now(),
	}
}

func findPosition(t *testing.T, snap Snapshot, tokenID string) Position {
	t.Helper()
	for _, pos := range snap.Positions {
		if pos.TokenID == tokenID {
			return pos
		}
	}
	t.Fatalf("no position for %s", tokenID)
	return Position{}
}

func TestRecordAveragesAcrossFills(t *testing.T) {
	tracker := NewTracker(zap.NewNop())

	tracker.Record(bothFilledResult("opp-1", "0.48", "0.50", "5"))
	tracker.Record(bothFilledResult("opp-2", "0.51", "0.47", "5"))

	snap := tracker.Snapshot(false)
	up := findPosition(t, snap, "token-up")

	assert.True(t, up.NetSize.Equal(dec("10")), "net size %s", up.NetSize)
	// 5@0.48 + 5@0.51 averages to exactly 0.495.
	assert.True(t, up.AvgPrice.Equal(dec("0.495")), "avg price %s", up.AvgPrice)
	assert.True(t, up.CostBasis.Equal(dec("4.95")))
	assert.Equal(t, 2, snap.PairsOn)
}

func TestRecordKeepsLedgersSeparate(t *testing.T) {
	tracker := NewTracker(zap.NewNop())

	live := bothFilledResult("opp-live", "0.48", "0.50", "5")
	sim := bothFilledResult("opp-sim", "0.40", "0.40", "5")
	sim.DryRun = true
	sim.Outcome = execution.OutcomeSimulated

	tracker.Record(live)
	tracker.Record(sim)

	liveSnap := tracker.Snapshot(false)
	simSnap := tracker.Snapshot(true)

	assert.Equal(t, 1, liveSnap.PairsOn)
	assert.Equal(t, 1, simSnap.PairsOn)
	assert.True(t, findPosition(t, liveSnap, "token-up").AvgPrice.Equal(dec("0.48")))
	assert.True(t, findPosition(t, simSnap, "token-up").AvgPrice.Equal(dec("0.40")))
	assert.True(t, simSnap.RealizedPnL.Equal(dec("1")), "sim pnl %s", simSnap.RealizedPnL)
}

func TestRecordPartialFillWithUnwindRealizesSlippage(t *testing.T) {
	tracker := NewTracker(zap.NewNop())

	result := &execution.Result{
		OpportunityID: "opp-1",
		MarketSlug:    "btc-updown-15m-1765301400",
		Outcome:       execution.OutcomePartialFill,
		UpLeg: execution.LegResult{
			Outcome:    types.OutcomeUp,
			TokenID:    "token-up",
			Status:     execution.StatusFilled,
			Price:      dec("0.47"),
			FilledSize: dec("5"),
			Filled:     true,
		},
		DownLeg: execution.LegResult{
			Outcome: types.OutcomeDown,
			TokenID: "token-down",
			Status:  execution.StatusRejected,
		},
		Unwind: &execution.UnwindResult{
			Attempted: true,
			Succeeded: true,
			Price:     dec("0.44"),
			Size:      dec("5"),
		},
	}
	tracker.Record(result)

	snap := tracker.Snapshot(false)
	up := findPosition(t, snap, "token-up")

	assert.True(t, up.NetSize.IsZero(), "unwound flat, got %s", up.NetSize)
	// Bought 5 @ 0.47, sold 5 @ 0.44: realized -0.15.
	assert.True(t, snap.RealizedPnL.Equal(dec("-0.15")), "pnl %s", snap.RealizedPnL)
	assert.Equal(t, 0, snap.PairsOn)
}

func TestRecordFailedUnwindLeavesExposure(t *testing.T) {
	tracker := NewTracker(zap.NewNop())

	result := &execution.Result{
		OpportunityID: "opp-1",
		Outcome:       execution.OutcomePartialFill,
		UpLeg: execution.LegResult{
			Outcome:    types.OutcomeUp,
			TokenID:    "token-up",
			Status:     execution.StatusFilled,
			Price:      dec("0.47"),
			FilledSize: dec("5"),
			Filled:     true,
		},
		DownLeg: execution.LegResult{
			Outcome: types.OutcomeDown,
			TokenID: "token-down",
			Status:  execution.StatusRejected,
		},
		Unwind: &execution.UnwindResult{Attempted: true, Succeeded: false},
	}
	tracker.Record(result)

	snap := tracker.Snapshot(false)
	up := findPosition(t, snap, "token-up")
	assert.True(t, up.NetSize.Equal(dec("5")), "exposure stays visible, got %s", up.NetSize)
}

func TestRecentResultsBounded(t *testing.T) {
	tracker := NewTracker(zap.NewNop())

	for i := 0; i < resultHistorySize+10; i++ {
		tracker.Record(bothFilledResult(fmt.Sprintf("opp-%d", i), "0.48", "0.50", "5"))
	}

	all := tracker.RecentResults(0)
	require.Len(t, all, resultHistorySize)
	assert.Equal(t, fmt.Sprintf("opp-%d", resultHistorySize+9), all[len(all)-1].OpportunityID)

	last3 := tracker.RecentResults(3)
	require.Len(t, last3, 3)
	assert.Equal(t, fmt.Sprintf("opp-%d", resultHistorySize+7), last3[0].OpportunityID)
}

func TestOutcomeCounts(t *testing.T) {
	tracker := NewTracker(zap.NewNop())

	tracker.Record(bothFilledResult("opp-1", "0.48", "0.50", "5"))
	tracker.Record(&execution.Result{OpportunityID: "opp-2", Outcome: execution.OutcomeNeitherFilled})
	tracker.Record(&execution.Result{OpportunityID: "opp-3", Outcome: execution.OutcomeNeitherFilled})

	counts := tracker.OutcomeCounts()
	assert.Equal(t, 1, counts[execution.OutcomeBothFilled])
	assert.Equal(t, 2, counts[execution.OutcomeNeitherFilled])
}
