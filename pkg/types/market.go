package types

import (
	"fmt"
	"time"
)

// MarketWindowSeconds is the duration of a BTC up/down 15-minute market.
const MarketWindowSeconds int64 = 900

// Outcome identifies one leg of a binary up/down market.
type Outcome string

const (
	// OutcomeUp is the "BTC goes up" (YES) leg.
	OutcomeUp Outcome = "UP"
	// OutcomeDown is the "BTC goes down" (NO) leg.
	OutcomeDown Outcome = "DOWN"
)

// Market is a resolved BTC up/down 15-minute market. Discovery produces one
// of these per window; the trading loop treats it as immutable for the
// lifetime of the window.
type Market struct {
	Slug           string // e.g. "btc-updown-15m-1765301400"
	ID             string
	UpTokenID      string
	DownTokenID    string
	StartTimestamp int64 // unix seconds, window open
	EndTimestamp   int64 // unix seconds, window close (start + 900)
	Question       string
}

// TokenID returns the CLOB token ID for the given leg.
func (m *Market) TokenID(outcome Outcome) string {
	if outcome == OutcomeUp {
		return m.UpTokenID
	}
	return m.DownTokenID
}

// IsClosed reports whether the market window has ended.
func (m *Market) IsClosed() bool {
	return time.Now().Unix() >= m.EndTimestamp
}

// TimeRemaining returns the duration until the window closes, or zero if
// already closed.
func (m *Market) TimeRemaining() time.Duration {
	remaining := m.EndTimestamp - time.Now().Unix()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Second
}

// TimeRemainingString formats the remaining time as "4m 32s" for scan logs.
func (m *Market) TimeRemainingString() string {
	remaining := m.TimeRemaining()
	if remaining == 0 {
		return "closed"
	}
	return fmt.Sprintf("%dm %ds", int(remaining.Minutes()), int(remaining.Seconds())%60)
}
