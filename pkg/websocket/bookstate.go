package websocket

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/types"
)

// BookState mirrors L2 depth for tracked tokens from streamed messages.
// A "book" message replaces the token's state wholesale; "price_change"
// messages mutate individual levels. Deltas that arrive before any
// snapshot are dropped, the token stays unsynced until the next snapshot.
type BookState struct {
	logger *zap.Logger
	mu     sync.RWMutex
	tokens map[string]*tokenBook
}

type tokenBook struct {
	outcome   types.Outcome
	synced    bool
	bids      map[string]decimal.Decimal
	asks      map[string]decimal.Decimal
	updatedAt time.Time
}

// NewBookState creates an empty book state.
func NewBookState(logger *zap.Logger) *BookState {
	return &BookState{
		logger: logger,
		tokens: make(map[string]*tokenBook),
	}
}

// Track registers a token so its messages are applied. Called when the feed
// rotates to a new window, after Untrack of the previous window's tokens.
func (s *BookState) Track(tokenID string, outcome types.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenID] = &tokenBook{
		outcome: outcome,
		bids:    make(map[string]decimal.Decimal),
		asks:    make(map[string]decimal.Decimal),
	}
}

// Untrack drops a token's state.
func (s *BookState) Untrack(tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenID)
}

// Apply folds one message into the state. Messages for untracked tokens
// and unknown event types are ignored.
func (s *BookState) Apply(msg *types.BookMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.tokens[msg.AssetID]
	if !ok {
		return
	}

	switch msg.EventType {
	case "book":
		s.applySnapshot(book, msg)
	case "price_change":
		s.applyChanges(book, msg)
	}
}

func (s *BookState) applySnapshot(book *tokenBook, msg *types.BookMessage) {
	book.bids = make(map[string]decimal.Decimal, len(msg.Bids))
	book.asks = make(map[string]decimal.Decimal, len(msg.Asks))

	if !loadLevels(book.bids, msg.Bids) || !loadLevels(book.asks, msg.Asks) {
		book.synced = false
		s.logger.Warn("book-snapshot-unparseable", zap.String("asset-id", msg.AssetID))
		return
	}

	book.synced = true
	book.updatedAt = time.Now()
	SnapshotsAppliedTotal.Inc()
}

func loadLevels(dst map[string]decimal.Decimal, raw []types.RawPriceLevel) bool {
	for _, r := range raw {
		size, err := decimal.NewFromString(r.Size)
		if err != nil {
			return false
		}
		if size.IsZero() {
			continue
		}
		if _, err := decimal.NewFromString(r.Price); err != nil {
			return false
		}
		dst[r.Price] = size
	}
	return true
}

func (s *BookState) applyChanges(book *tokenBook, msg *types.BookMessage) {
	if !book.synced {
		DeltasDroppedTotal.Inc()
		return
	}

	for _, change := range msg.Changes {
		size, err := decimal.NewFromString(change.Size)
		if err != nil {
			s.logger.Warn("price-change-unparseable",
				zap.String("asset-id", msg.AssetID),
				zap.String("size", change.Size))
			continue
		}

		var side map[string]decimal.Decimal
		switch change.Side {
		case "BUY":
			side = book.bids
		case "SELL":
			side = book.asks
		default:
			continue
		}

		if size.IsZero() {
			delete(side, change.Price)
		} else {
			side[change.Price] = size
		}
	}

	book.updatedAt = time.Now()
	DeltasAppliedTotal.Inc()
}

// Snapshot materializes an OutcomeBook for the token: bids descending, asks
// ascending. Returns false until a "book" snapshot has been applied.
func (s *BookState) Snapshot(tokenID string) (*orderbook.OutcomeBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.tokens[tokenID]
	if !ok || !book.synced {
		return nil, false
	}

	out := &orderbook.OutcomeBook{
		TokenID:   tokenID,
		Outcome:   book.outcome,
		Bids:      sortedLevels(book.bids, false),
		Asks:      sortedLevels(book.asks, true),
		UpdatedAt: book.updatedAt,
	}
	return out, true
}

func sortedLevels(side map[string]decimal.Decimal, ascending bool) []orderbook.PriceLevel {
	levels := make([]orderbook.PriceLevel, 0, len(side))
	for price, size := range side {
		p, _ := decimal.NewFromString(price)
		levels = append(levels, orderbook.NewPriceLevel(p, size))
	}
	sort.Slice(levels, func(i, j int) bool {
		if ascending {
			return levels[i].Price.LessThan(levels[j].Price)
		}
		return levels[i].Price.GreaterThan(levels[j].Price)
	})
	return levels
}

// Synced reports whether the token has a live snapshot.
func (s *BookState) Synced(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.tokens[tokenID]
	return ok && book.synced
}
