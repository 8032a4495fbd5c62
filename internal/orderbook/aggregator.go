package orderbook

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidSize indicates a non-positive requested size.
	ErrInvalidSize = errors.New("invalid size")
	// ErrBookInverted indicates a crossed book (best ask below best bid).
	ErrBookInverted = errors.New("order book inverted")
	// ErrMalformedBook indicates a snapshot violating level invariants.
	ErrMalformedBook = errors.New("malformed order book")
)

// FillQuote is the result of walking one side of a book for a target size.
// WorstPrice is the price of the last level consumed: the price the whole
// order clears at under a single aggressive marketable order. Deliberately
// pessimistic versus the VWAP so profit is never overstated.
type FillQuote struct {
	RequestedSize  decimal.Decimal
	AchievableSize decimal.Decimal
	WorstPrice     decimal.Decimal
	BestPrice      decimal.Decimal
	VWAP           decimal.Decimal
	TotalCost      decimal.Decimal
	FullyFillable  bool
}

// Quote walks the ask side in ascending price order, accumulating size until
// the target is covered or depth runs out. When depth is short the quote
// reports FullyFillable=false and the achievable size; the detector treats
// that as "no opportunity", never as "degrade size".
func Quote(book *OutcomeBook, size decimal.Decimal) (FillQuote, error) {
	start := time.Now()
	defer func() {
		QuoteDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if size.LessThanOrEqual(decimal.Zero) {
		return FillQuote{}, fmt.Errorf("%w: %s", ErrInvalidSize, size)
	}

	quote := walkLevels(book.Asks, size)
	if !quote.FullyFillable {
		QuotesShortTotal.Inc()
	}
	return quote, nil
}

// SellQuote walks the bid side in descending price order. Used by the unwind
// controller to price the compensating sell for a partial fill.
func SellQuote(book *OutcomeBook, size decimal.Decimal) (FillQuote, error) {
	if size.LessThanOrEqual(decimal.Zero) {
		return FillQuote{}, fmt.Errorf("%w: %s", ErrInvalidSize, size)
	}
	return walkLevels(book.Bids, size), nil
}

// walkLevels consumes levels from best price outward. Levels must already be
// sorted best-first (ascending asks, descending bids).
func walkLevels(levels []PriceLevel, size decimal.Decimal) FillQuote {
	quote := FillQuote{
		RequestedSize:  size,
		AchievableSize: decimal.Zero,
		TotalCost:      decimal.Zero,
	}

	if len(levels) == 0 {
		return quote
	}
	quote.BestPrice = levels[0].Price

	remaining := size
	for _, level := range levels {
		if remaining.IsZero() {
			break
		}
		fill := decimal.Min(remaining, level.Size)
		quote.TotalCost = quote.TotalCost.Add(fill.Mul(level.Price))
		quote.AchievableSize = quote.AchievableSize.Add(fill)
		quote.WorstPrice = level.Price
		remaining = remaining.Sub(fill)
	}

	quote.FullyFillable = remaining.IsZero()
	if quote.AchievableSize.IsPositive() {
		quote.VWAP = quote.TotalCost.Div(quote.AchievableSize)
	}

	return quote
}

// SellRevenue returns the total proceeds from selling size into the bid
// side, or false when depth is insufficient.
func SellRevenue(book *OutcomeBook, size decimal.Decimal) (decimal.Decimal, bool) {
	quote, err := SellQuote(book, size)
	if err != nil || !quote.FullyFillable {
		return decimal.Zero, false
	}
	return quote.TotalCost, true
}

// DepthAtOrBelow sums ask liquidity at prices up to and including the target.
func DepthAtOrBelow(book *OutcomeBook, price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, level := range book.Asks {
		if level.Price.GreaterThan(price) {
			break
		}
		total = total.Add(level.Size)
	}
	return total
}
