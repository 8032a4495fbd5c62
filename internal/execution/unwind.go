package execution

import (
	"context"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// unwindTickback is subtracted from the best bid when pricing the
// compensating sell, crossing the spread by one cent to fill fast.
var unwindTickback = decimal.NewFromFloat(0.01)

// unwind flattens the exposure left by an unbalanced fill with a single
// aggressive sell of size shares of the exposed leg. Exactly one attempt is
// made: a failure is escalated, never retried, so a flaky exchange cannot
// trigger a cascade of sells against a stale book. The position tracker
// keeps the residual exposure visible either way.
func (e *Engine) unwind(ctx context.Context, opp *arbitrage.Opportunity, exposed *LegResult, size decimal.Decimal) *UnwindResult {
	result := &UnwindResult{Attempted: true, Size: size}
	UnwindAttemptsTotal.Inc()

	book, err := e.transport.FetchBook(ctx, exposed.TokenID, exposed.Outcome)
	if err != nil {
		result.Err = err
		e.escalate(opp, exposed, size, "unwind-book-fetch-failed", err)
		return result
	}

	bestBid, ok := book.BestBid()
	if !ok {
		e.escalate(opp, exposed, size, "unwind-no-bids", nil)
		return result
	}

	price := bestBid.Sub(unwindTickback)
	if price.LessThanOrEqual(decimal.Zero) {
		e.escalate(opp, exposed, size, "unwind-price-degenerate", nil)
		return result
	}
	result.Price = price

	// Expected proceeds at current depth; a short bid side does not stop
	// the unwind, the GTC remainder rests, but it is worth flagging.
	if revenue, covered := orderbook.SellRevenue(book, size); covered {
		e.logger.Info("unwind-expected-revenue",
			zap.String("opportunity-id", opp.ID),
			zap.String("revenue", revenue.String()),
			zap.String("size", size.String()))
	} else {
		e.logger.Warn("unwind-bid-depth-short",
			zap.String("opportunity-id", opp.ID),
			zap.String("size", size.String()),
			zap.String("bid-liquidity", book.TotalBidLiquidity().String()))
	}

	ack, err := e.transport.SubmitOrder(ctx, &OrderRequest{
		TokenID:     exposed.TokenID,
		Outcome:     exposed.Outcome,
		Side:        SideSell,
		Price:       price,
		Size:        size,
		TimeInForce: TimeInForceGTC,
	})
	if err != nil {
		result.Err = err
		e.escalate(opp, exposed, size, "unwind-submit-failed", err)
		return result
	}

	result.Succeeded = true
	result.OrderID = ack.OrderID
	UnwindsSucceededTotal.Inc()
	e.logger.Warn("unwind-order-placed",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-slug", opp.Market.Slug),
		zap.String("outcome", string(exposed.Outcome)),
		zap.String("order-id", ack.OrderID),
		zap.String("price", price.String()),
		zap.String("size", size.String()))
	return result
}

// escalate flags an unwind that left naked exposure on the book. Operators
// watch for this event; the process keeps running.
func (e *Engine) escalate(opp *arbitrage.Opportunity, exposed *LegResult, size decimal.Decimal, event string, err error) {
	UnwindFailuresTotal.Inc()
	fields := []zap.Field{
		zap.String("opportunity-id", opp.ID),
		zap.String("market-slug", opp.Market.Slug),
		zap.String("outcome", string(exposed.Outcome)),
		zap.String("token-id", exposed.TokenID),
		zap.String("exposed-size", size.String()),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	e.logger.Error(event, fields...)
	e.logger.Error("manual-intervention-required",
		zap.String("opportunity-id", opp.ID),
		zap.String("token-id", exposed.TokenID),
		zap.String("exposed-size", size.String()))
}
