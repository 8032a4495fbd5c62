package types

import (
	"strconv"

	"github.com/goccy/go-json"
)

// BookMessage represents a market-channel message from the CLOB WebSocket.
// Event types: "book" (full snapshot), "price_change" (delta),
// "last_trade_price" (ignored by the feed).
type BookMessage struct {
	EventType string          `json:"event_type"`
	AssetID   string          `json:"asset_id"`
	Market    string          `json:"market"`
	Timestamp int64           `json:"-"` // parsed from string via UnmarshalJSON
	Hash      string          `json:"hash,omitempty"`
	Bids      []RawPriceLevel `json:"bids,omitempty"`
	Asks      []RawPriceLevel `json:"asks,omitempty"`
	Changes   []PriceChange   `json:"changes,omitempty"`
}

// PriceChange is a single level delta inside a "price_change" message.
type PriceChange struct {
	Price string `json:"price"`
	Size  string `json:"size"`
	Side  string `json:"side"` // "BUY" updates bids, "SELL" updates asks
}

// UnmarshalJSON handles the string-encoded timestamp field.
func (b *BookMessage) UnmarshalJSON(data []byte) error {
	type alias BookMessage
	aux := &struct {
		TimestampStr string `json:"timestamp"`
		*alias
	}{
		alias: (*alias)(b),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TimestampStr != "" {
		ts, err := strconv.ParseInt(aux.TimestampStr, 10, 64)
		if err != nil {
			return err
		}
		b.Timestamp = ts
	}

	return nil
}
