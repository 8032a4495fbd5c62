package orderbook

import (
	"testing"
	"time"

	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func levels(pairs ...[2]string) []PriceLevel {
	out := make([]PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, NewPriceLevel(dec(p[0]), dec(p[1])))
	}
	return out
}

func askBook(pairs ...[2]string) *OutcomeBook {
	return &OutcomeBook{
		TokenID:   "token-up",
		Outcome:   types.OutcomeUp,
		Asks:      levels(pairs...),
		UpdatedAt: time.Now(),
	}
}

func TestQuoteSingleLevel(t *testing.T) {
	book := askBook([2]string{"0.47", "20"})

	quote, err := Quote(book, dec("10"))
	require.NoError(t, err)

	assert.True(t, quote.FullyFillable)
	assert.True(t, quote.WorstPrice.Equal(dec("0.47")))
	assert.True(t, quote.BestPrice.Equal(dec("0.47")))
	assert.True(t, quote.VWAP.Equal(dec("0.47")))
	assert.True(t, quote.TotalCost.Equal(dec("4.7")))
	assert.True(t, quote.AchievableSize.Equal(dec("10")))
}

func TestQuoteSpansLevelsWorstPriceIsLastConsumed(t *testing.T) {
	book := askBook(
		[2]string{"0.46", "6"},
		[2]string{"0.48", "8"},
		[2]string{"0.55", "100"},
	)

	// Size 10: all of the 0.46 level plus 4 of the 0.48 level. The
	// 0.55 level is never touched and must not affect the worst price.
	quote, err := Quote(book, dec("10"))
	require.NoError(t, err)

	assert.True(t, quote.FullyFillable)
	assert.True(t, quote.WorstPrice.Equal(dec("0.48")), "worst %s", quote.WorstPrice)
	assert.True(t, quote.BestPrice.Equal(dec("0.46")))
	// 6*0.46 + 4*0.48 = 2.76 + 1.92 = 4.68
	assert.True(t, quote.TotalCost.Equal(dec("4.68")), "cost %s", quote.TotalCost)
	assert.True(t, quote.VWAP.Equal(dec("0.468")), "vwap %s", quote.VWAP)
}

func TestQuoteInsufficientDepth(t *testing.T) {
	book := askBook([2]string{"0.47", "3"})

	quote, err := Quote(book, dec("10"))
	require.NoError(t, err)

	assert.False(t, quote.FullyFillable)
	assert.True(t, quote.AchievableSize.Equal(dec("3")))
	assert.True(t, quote.RequestedSize.Equal(dec("10")))
}

func TestQuoteEmptyBook(t *testing.T) {
	quote, err := Quote(askBook(), dec("5"))
	require.NoError(t, err)
	assert.False(t, quote.FullyFillable)
	assert.True(t, quote.AchievableSize.IsZero())
}

func TestQuoteRejectsNonPositiveSize(t *testing.T) {
	_, err := Quote(askBook([2]string{"0.47", "10"}), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Quote(askBook([2]string{"0.47", "10"}), dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestQuoteExactDecimalCost(t *testing.T) {
	// 0.1 + 0.2 style traps: three levels whose float64 sum drifts.
	book := askBook(
		[2]string{"0.1", "1"},
		[2]string{"0.2", "1"},
		[2]string{"0.3", "1"},
	)

	quote, err := Quote(book, dec("3"))
	require.NoError(t, err)
	assert.True(t, quote.TotalCost.Equal(dec("0.6")), "cost %s", quote.TotalCost)
	assert.True(t, quote.VWAP.Equal(dec("0.2")), "vwap %s", quote.VWAP)
}

func TestSellQuoteWalksBids(t *testing.T) {
	book := &OutcomeBook{
		TokenID: "token-up",
		Outcome: types.OutcomeUp,
		Bids: levels(
			[2]string{"0.45", "2"},
			[2]string{"0.43", "10"},
		),
	}

	quote, err := SellQuote(book, dec("5"))
	require.NoError(t, err)
	assert.True(t, quote.FullyFillable)
	assert.True(t, quote.WorstPrice.Equal(dec("0.43")))
	// 2*0.45 + 3*0.43 = 0.9 + 1.29 = 2.19
	assert.True(t, quote.TotalCost.Equal(dec("2.19")), "revenue %s", quote.TotalCost)

	revenue, ok := SellRevenue(book, dec("5"))
	require.True(t, ok)
	assert.True(t, revenue.Equal(dec("2.19")))

	_, ok = SellRevenue(book, dec("100"))
	assert.False(t, ok)
}

func TestDepthAtOrBelow(t *testing.T) {
	book := askBook(
		[2]string{"0.46", "6"},
		[2]string{"0.48", "8"},
		[2]string{"0.55", "100"},
	)

	assert.True(t, DepthAtOrBelow(book, dec("0.48")).Equal(dec("14")))
	assert.True(t, DepthAtOrBelow(book, dec("0.40")).IsZero())
	assert.True(t, DepthAtOrBelow(book, dec("0.99")).Equal(dec("114")))
}

func TestValidateRejectsInvertedBook(t *testing.T) {
	book := &OutcomeBook{
		TokenID: "token-up",
		Bids:    levels([2]string{"0.50", "10"}),
		Asks:    levels([2]string{"0.48", "10"}),
	}
	assert.ErrorIs(t, book.Validate(), ErrBookInverted)
	assert.True(t, book.IsInverted())
}

func TestValidateRejectsMalformedLevels(t *testing.T) {
	tests := []struct {
		name string
		book *OutcomeBook
	}{
		{"price above one", &OutcomeBook{Asks: levels([2]string{"1.05", "10"})}},
		{"zero price", &OutcomeBook{Asks: levels([2]string{"0", "10"})}},
		{"asks out of order", &OutcomeBook{Asks: levels([2]string{"0.50", "5"}, [2]string{"0.48", "5"})}},
		{"bids out of order", &OutcomeBook{Bids: levels([2]string{"0.40", "5"}, [2]string{"0.45", "5"})}},
		{"duplicate level", &OutcomeBook{Asks: levels([2]string{"0.50", "5"}, [2]string{"0.50", "5"})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.book.Validate(), ErrMalformedBook)
		})
	}
}

func TestValidateAcceptsWellFormedBook(t *testing.T) {
	book := &OutcomeBook{
		TokenID: "token-up",
		Bids:    levels([2]string{"0.46", "10"}, [2]string{"0.44", "5"}),
		Asks:    levels([2]string{"0.48", "10"}, [2]string{"0.52", "5"}),
	}
	assert.NoError(t, book.Validate())

	mid, ok := book.MidPrice()
	require.True(t, ok)
	assert.True(t, mid.Equal(dec("0.47")))
}

func TestParseLevels(t *testing.T) {
	raw := []types.RawPriceLevel{
		{Price: "0.48", Size: "12.5"},
		{Price: "0.50", Size: "0"},
		{Price: "0.52", Size: "3"},
	}

	parsed, err := ParseLevels(raw)
	require.NoError(t, err)
	require.Len(t, parsed, 2, "zero-size level dropped")
	assert.True(t, parsed[0].Price.Equal(dec("0.48")))
	assert.True(t, parsed[0].Size.Equal(dec("12.5")))
	assert.True(t, parsed[1].Price.Equal(dec("0.52")))
}

func TestParseLevelsRejectsGarbage(t *testing.T) {
	_, err := ParseLevels([]types.RawPriceLevel{{Price: "abc", Size: "1"}})
	assert.Error(t, err)

	_, err = ParseLevels([]types.RawPriceLevel{{Price: "0.5", Size: ""}})
	assert.Error(t, err)
}
