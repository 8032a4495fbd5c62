package arbitrage

import (
	"testing"
	"time"

	"github.com/mselser95/updown-arb/internal/orderbook"
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

func testMarket() *types.Market {
	return &types.Market{
		Slug:        "btc-updown-15m-1765301400",
		ID:          "0xmarket",
		UpTokenID:   "token-up",
		DownTokenID: "token-down",
	}
}

func book(outcome types.Outcome, asks, bids [][2]string) *orderbook.OutcomeBook {
	b := &orderbook.OutcomeBook{
		TokenID:   "token-" + string(outcome),
		Outcome:   outcome,
		UpdatedAt: time.Now(),
	}
	for _, l := range asks {
		b.Asks = append(b.Asks, orderbook.NewPriceLevel(dec(l[0]), dec(l[1])))
	}
	for _, l := range bids {
		b.Bids = append(b.Bids, orderbook.NewPriceLevel(dec(l[0]), dec(l[1])))
	}
	return b
}

func newTestDetector(t *testing.T, size, target string, cooldown time.Duration) *Detector {
	t.Helper()
	return NewDetector(zap.NewNop(), dec(size), dec(target), cooldown)
}

func TestTryDetectAcceptsProfitablePair(t *testing.T) {
	d := newTestDetector(t, "10", "0.991", 10*time.Second)

	up := book(types.OutcomeUp, [][2]string{{"0.47", "20"}}, [][2]string{{"0.45", "20"}})
	down := book(types.OutcomeDown, [][2]string{{"0.51", "20"}}, [][2]string{{"0.49", "20"}})

	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, diag)
	require.NotNil(t, opp)

	assert.True(t, opp.TotalCost.Equal(dec("0.98")), "total cost %s", opp.TotalCost)
	assert.True(t, opp.ProfitPerShare.Equal(dec("0.02")), "profit %s", opp.ProfitPerShare)
	assert.True(t, opp.ExpectedProfit.Equal(dec("0.2")), "expected profit %s", opp.ExpectedProfit)
	assert.True(t, opp.UpPrice.Equal(dec("0.47")))
	assert.True(t, opp.DownPrice.Equal(dec("0.51")))
	assert.NotEmpty(t, opp.ID)
}

func TestTryDetectCostPlusProfitIsExactlyOne(t *testing.T) {
	// Prices chosen to expose binary-float rounding if it ever crept in:
	// 0.47 + 0.52 has no exact float64 representation.
	d := newTestDetector(t, "5", "0.9999", 0)

	up := book(types.OutcomeUp, [][2]string{{"0.47", "10"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.52", "10"}}, nil)

	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, diag)
	require.NotNil(t, opp)

	sum := opp.TotalCost.Add(opp.ProfitPerShare)
	assert.True(t, sum.Equal(decimal.NewFromInt(1)), "cost+profit = %s", sum)
	assert.True(t, opp.ProfitPerShare.Equal(dec("0.01")), "profit %s", opp.ProfitPerShare)
}

func TestTryDetectWorstPriceSpansLevels(t *testing.T) {
	// Size 10 consumes 6 at 0.46 and 4 of the 0.48 level; the worst price
	// for the leg is 0.48 even though the level is only partially used.
	d := newTestDetector(t, "10", "0.991", 0)

	up := book(types.OutcomeUp, [][2]string{{"0.46", "6"}, {"0.48", "8"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.50", "15"}}, nil)

	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, diag)
	require.NotNil(t, opp)

	assert.True(t, opp.UpPrice.Equal(dec("0.48")), "up worst price %s", opp.UpPrice)
	assert.True(t, opp.TotalCost.Equal(dec("0.98")))
}

func TestTryDetectRejectsCostAtThreshold(t *testing.T) {
	// 0.48 + 0.511 == 0.991 exactly: not strictly below, so no opportunity.
	d := newTestDetector(t, "5", "0.991", 0)

	up := book(types.OutcomeUp, [][2]string{{"0.48", "10"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.511", "10"}}, nil)

	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, opp)
	require.NotNil(t, diag)
	assert.Equal(t, ReasonAboveThreshold, diag.Reason)
	assert.True(t, diag.TotalCost.Equal(dec("0.991")))
}

func TestTryDetectWideSpreadShortCircuitsBeforeQuoting(t *testing.T) {
	// With best asks summing to 1.20, no depth walk can price the pair
	// below the threshold. The top-of-book gate rejects without quoting,
	// so the diagnosis carries the spread and no pair cost.
	d := newTestDetector(t, "5", "0.991", 0)

	up := book(types.OutcomeUp, [][2]string{{"0.60", "10"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.60", "10"}}, nil)

	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, opp)
	require.NotNil(t, diag)
	assert.Equal(t, ReasonAboveThreshold, diag.Reason)
	assert.True(t, diag.Spread.Equal(dec("0.2")), "spread %s", diag.Spread)
	assert.True(t, diag.TotalCost.IsZero())
	assert.Contains(t, diag.String(), "top-of-book spread")
}

func TestTryDetectInsufficientDepthNeverDegradesSize(t *testing.T) {
	// Only 3 shares of depth on the up leg for a size-5 order. The scan
	// must report no opportunity rather than quote a smaller size.
	d := newTestDetector(t, "5", "0.991", 0)

	up := book(types.OutcomeUp, [][2]string{{"0.40", "3"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.50", "10"}}, nil)

	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, opp)
	require.NotNil(t, diag)
	assert.Equal(t, ReasonInsufficientDepth, diag.Reason)
	assert.True(t, diag.UpAchievable.Equal(dec("3")))
	assert.True(t, diag.DownAchievable.Equal(dec("5")))
}

func TestTryDetectCooldownSuppressesAndExpires(t *testing.T) {
	d := newTestDetector(t, "5", "0.991", 10*time.Second)
	clock := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	up := book(types.OutcomeUp, [][2]string{{"0.47", "10"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.51", "10"}}, nil)

	opp, _, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.NotNil(t, opp, "first detection accepted")

	clock = clock.Add(4 * time.Second)
	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, opp)
	require.NotNil(t, diag)
	assert.Equal(t, ReasonCooldown, diag.Reason)
	assert.Equal(t, 6*time.Second, diag.CooldownRemaining)
	assert.Equal(t, 6*time.Second, d.CooldownRemaining())

	clock = clock.Add(6 * time.Second)
	opp, diag, err = d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	require.Nil(t, diag)
	require.NotNil(t, opp, "detection resumes after cooldown")
}

func TestTryDetectCooldownStampedOnAcceptance(t *testing.T) {
	// The stamp happens inside TryDetect, not after execution: a failed or
	// crashed execution still burns the interval.
	d := newTestDetector(t, "5", "0.991", 10*time.Second)
	clock := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	up := book(types.OutcomeUp, [][2]string{{"0.47", "10"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.51", "10"}}, nil)

	_, _, err := d.TryDetect(testMarket(), up, down)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, d.CooldownRemaining())
}

func TestTryDetectRejectsInvertedBook(t *testing.T) {
	d := newTestDetector(t, "5", "0.991", 0)

	up := book(types.OutcomeUp, [][2]string{{"0.44", "10"}}, [][2]string{{"0.46", "10"}})
	down := book(types.OutcomeDown, [][2]string{{"0.50", "10"}}, nil)

	opp, diag, err := d.TryDetect(testMarket(), up, down)
	require.Error(t, err)
	assert.ErrorIs(t, err, orderbook.ErrBookInverted)
	assert.Nil(t, opp)
	assert.Nil(t, diag)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		up, down   string
		wantCost   string
		wantProfit string
	}{
		{"profitable", "0.47", "0.51", "0.98", "0.02"},
		{"break even", "0.50", "0.50", "1", "0"},
		{"negative edge", "0.52", "0.53", "1.05", "-0.05"},
		{"deep discount", "0.30", "0.45", "0.75", "0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := orderbook.FillQuote{WorstPrice: dec(tt.up)}
			down := orderbook.FillQuote{WorstPrice: dec(tt.down)}
			cost, profit := Evaluate(up, down)
			assert.True(t, cost.Equal(dec(tt.wantCost)), "cost %s", cost)
			assert.True(t, profit.Equal(dec(tt.wantProfit)), "profit %s", profit)
		})
	}
}

func TestEffectiveSpread(t *testing.T) {
	up := book(types.OutcomeUp, [][2]string{{"0.47", "10"}}, nil)
	down := book(types.OutcomeDown, [][2]string{{"0.51", "10"}}, nil)

	spread, ok := EffectiveSpread(up, down)
	require.True(t, ok)
	assert.True(t, spread.Equal(dec("-0.02")), "spread %s", spread)

	empty := book(types.OutcomeDown, nil, nil)
	_, ok = EffectiveSpread(up, empty)
	assert.False(t, ok)
}
