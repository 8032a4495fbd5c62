package arbitrage

import (
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/shopspring/decimal"
)

// settlementPayout is the terminal payout of exactly one outcome at market
// resolution, fixed by the binary-settlement contract.
var settlementPayout = decimal.NewFromInt(1)

// Evaluate combines the worst-case fill prices of both legs into a pair cost
// and a per-share profit. No rounding anywhere: the decimals flow exact into
// the threshold comparison, so totalCost + profitPerShare == 1 holds to the
// last digit.
func Evaluate(up, down orderbook.FillQuote) (totalCost, profitPerShare decimal.Decimal) {
	totalCost = up.WorstPrice.Add(down.WorstPrice)
	profitPerShare = settlementPayout.Sub(totalCost)
	return totalCost, profitPerShare
}

// EffectiveSpread returns bestAskUp + bestAskDown - 1, the quick top-of-book
// signal used in scan diagnostics. Negative values are favorable.
func EffectiveSpread(upBook, downBook *orderbook.OutcomeBook) (decimal.Decimal, bool) {
	upAsk, hasUp := upBook.BestAsk()
	downAsk, hasDown := downBook.BestAsk()
	if !hasUp || !hasDown {
		return decimal.Zero, false
	}
	return upAsk.Add(downAsk).Sub(settlementPayout), true
}
