package orderbook

import (
	"fmt"
	"time"

	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
)

// PriceLevel is one rung of the book. Immutable once built.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// NewPriceLevel builds a level from exact decimals.
func NewPriceLevel(price, size decimal.Decimal) PriceLevel {
	return PriceLevel{Price: price, Size: size}
}

// OutcomeBook is a full depth snapshot for one leg's token. Bids are ordered
// by descending price, asks by ascending price. A book is owned by the fetch
// cycle that produced it and replaced wholesale on refresh; nothing mutates
// it in place across cycles.
type OutcomeBook struct {
	TokenID   string
	Outcome   types.Outcome
	Bids      []PriceLevel
	Asks      []PriceLevel
	UpdatedAt time.Time
}

// BestBid returns the highest bid price, if any.
func (b *OutcomeBook) BestBid() (decimal.Decimal, bool) {
	if len(b.Bids) == 0 {
		return decimal.Zero, false
	}
	return b.Bids[0].Price, true
}

// BestAsk returns the lowest ask price, if any.
func (b *OutcomeBook) BestAsk() (decimal.Decimal, bool) {
	if len(b.Asks) == 0 {
		return decimal.Zero, false
	}
	return b.Asks[0].Price, true
}

// TotalAskLiquidity sums ask sizes across all levels.
func (b *OutcomeBook) TotalAskLiquidity() decimal.Decimal {
	total := decimal.Zero
	for _, level := range b.Asks {
		total = total.Add(level.Size)
	}
	return total
}

// TotalBidLiquidity sums bid sizes across all levels.
func (b *OutcomeBook) TotalBidLiquidity() decimal.Decimal {
	total := decimal.Zero
	for _, level := range b.Bids {
		total = total.Add(level.Size)
	}
	return total
}

// IsInverted reports whether the best ask sits below the best bid. A crossed
// book is a malformed snapshot and must never feed the detector.
func (b *OutcomeBook) IsInverted() bool {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if !hasBid || !hasAsk {
		return false
	}
	return ask.LessThan(bid)
}

// MidPrice returns (bestBid + bestAsk) / 2, if both sides exist.
func (b *OutcomeBook) MidPrice() (decimal.Decimal, bool) {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if !hasBid || !hasAsk {
		return decimal.Zero, false
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), true
}

// Validate checks snapshot invariants: prices inside (0,1), positive sizes,
// correct ordering, no duplicate prices, not crossed. A failure aborts the
// current scan cycle only.
func (b *OutcomeBook) Validate() error {
	if b.IsInverted() {
		bid, _ := b.BestBid()
		ask, _ := b.BestAsk()
		return fmt.Errorf("%w: token %s best_ask=%s < best_bid=%s",
			ErrBookInverted, b.TokenID, ask, bid)
	}

	if err := validateLevels(b.Asks, true); err != nil {
		return fmt.Errorf("asks for token %s: %w", b.TokenID, err)
	}
	if err := validateLevels(b.Bids, false); err != nil {
		return fmt.Errorf("bids for token %s: %w", b.TokenID, err)
	}

	return nil
}

func validateLevels(levels []PriceLevel, ascending bool) error {
	one := decimal.NewFromInt(1)
	for i, level := range levels {
		if level.Price.LessThanOrEqual(decimal.Zero) || level.Price.GreaterThanOrEqual(one) {
			return fmt.Errorf("%w: price %s outside (0,1)", ErrMalformedBook, level.Price)
		}
		if level.Size.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: non-positive size %s at price %s",
				ErrMalformedBook, level.Size, level.Price)
		}
		if i == 0 {
			continue
		}
		prev := levels[i-1].Price
		if level.Price.Equal(prev) {
			return fmt.Errorf("%w: duplicate price level %s", ErrMalformedBook, level.Price)
		}
		if ascending && level.Price.LessThan(prev) {
			return fmt.Errorf("%w: asks not ascending at %s", ErrMalformedBook, level.Price)
		}
		if !ascending && level.Price.GreaterThan(prev) {
			return fmt.Errorf("%w: bids not descending at %s", ErrMalformedBook, level.Price)
		}
	}
	return nil
}

// ParseLevels converts wire-format levels into exact-decimal levels,
// dropping zero-size entries. Order is preserved.
func ParseLevels(raw []types.RawPriceLevel) ([]PriceLevel, error) {
	levels := make([]PriceLevel, 0, len(raw))
	for _, r := range raw {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", r.Price, err)
		}
		size, err := decimal.NewFromString(r.Size)
		if err != nil {
			return nil, fmt.Errorf("parse size %q: %w", r.Size, err)
		}
		if size.IsZero() {
			continue
		}
		levels = append(levels, PriceLevel{Price: price, Size: size})
	}
	return levels, nil
}
