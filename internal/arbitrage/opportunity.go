package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
)

// Opportunity is a detected riskless pair: both legs fully fillable at the
// configured size with a combined worst-case cost below the threshold.
// Immutable; consumed exactly once by the execution engine.
type Opportunity struct {
	ID     string
	Market *types.Market

	UpQuote   orderbook.FillQuote
	DownQuote orderbook.FillQuote

	// UpPrice and DownPrice are the worst-case fill prices, used as the
	// limit prices for both legs.
	UpPrice   decimal.Decimal
	DownPrice decimal.Decimal

	TotalCost      decimal.Decimal
	ProfitPerShare decimal.Decimal
	ProfitPct      decimal.Decimal
	OrderSize      decimal.Decimal

	TotalInvestment decimal.Decimal
	ExpectedPayout  decimal.Decimal
	ExpectedProfit  decimal.Decimal

	DetectedAt time.Time
}

// newOpportunity derives the full cost/profit picture from two fill quotes.
func newOpportunity(market *types.Market, up, down orderbook.FillQuote, size decimal.Decimal) *Opportunity {
	totalCost, profitPerShare := Evaluate(up, down)

	profitPct := decimal.Zero
	if totalCost.IsPositive() {
		profitPct = profitPerShare.Div(totalCost).Mul(decimal.NewFromInt(100))
	}

	totalInvestment := totalCost.Mul(size)
	expectedPayout := size // $1.00 per pair at settlement

	return &Opportunity{
		ID:              uuid.New().String(),
		Market:          market,
		UpQuote:         up,
		DownQuote:       down,
		UpPrice:         up.WorstPrice,
		DownPrice:       down.WorstPrice,
		TotalCost:       totalCost,
		ProfitPerShare:  profitPerShare,
		ProfitPct:       profitPct,
		OrderSize:       size,
		TotalInvestment: totalInvestment,
		ExpectedPayout:  expectedPayout,
		ExpectedProfit:  expectedPayout.Sub(totalInvestment),
		DetectedAt:      time.Now(),
	}
}

// ROI returns expected profit over investment as a percentage.
func (o *Opportunity) ROI() decimal.Decimal {
	if o.TotalInvestment.IsZero() {
		return decimal.Zero
	}
	return o.ExpectedProfit.Div(o.TotalInvestment).Mul(decimal.NewFromInt(100))
}

// String returns a compact one-line summary for logs.
func (o *Opportunity) String() string {
	return fmt.Sprintf(
		"Opportunity[%s] Market=%s UP=%s DOWN=%s Cost=%s Profit/share=%s Size=%s Est=$%s",
		o.ID[:8],
		o.Market.Slug,
		o.UpPrice,
		o.DownPrice,
		o.TotalCost,
		o.ProfitPerShare,
		o.OrderSize,
		o.ExpectedProfit,
	)
}
