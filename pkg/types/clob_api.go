package types

// RawPriceLevel is a single price level as the CLOB API encodes it.
// Prices and sizes arrive as decimal strings; parsing into exact decimals
// happens at the orderbook boundary, never here.
type RawPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookResponse represents the response from GET /book.
type BookResponse struct {
	Market    string          `json:"market"`
	AssetID   string          `json:"asset_id"`
	Timestamp string          `json:"timestamp"` // milliseconds as string
	Hash      string          `json:"hash"`
	Bids      []RawPriceLevel `json:"bids"`
	Asks      []RawPriceLevel `json:"asks"`
}

// SignedOrderJSON represents a signed order in the format expected by the
// CLOB API. Fields match the EIP-712 order structure after signing.
type SignedOrderJSON struct {
	Salt          int64  `json:"salt"`          // Integer per API spec (not string)
	Maker         string `json:"maker"`         // Funder address
	Signer        string `json:"signer"`        // Signing address (EOA)
	Taker         string `json:"taker"`         // Operator address (0x0000... for public)
	TokenID       string `json:"tokenId"`       // ERC1155 token ID
	MakerAmount   string `json:"makerAmount"`   // Raw amount (6 decimals for USDC)
	TakerAmount   string `json:"takerAmount"`   // Raw token amount
	Side          string `json:"side"`          // "BUY" or "SELL"
	Expiration    string `json:"expiration"`    // Unix timestamp (0 for no expiry)
	Nonce         string `json:"nonce"`         // Nonce value
	FeeRateBps    string `json:"feeRateBps"`    // Fee rate in basis points
	SignatureType int    `json:"signatureType"` // Integer: 0=EOA, 1=POLY_PROXY, 2=GNOSIS_SAFE
	Signature     string `json:"signature"`     // Hex-encoded signature with 0x prefix
}

// OrderSubmissionRequest represents a single order submission wrapped with metadata.
type OrderSubmissionRequest struct {
	Order     SignedOrderJSON `json:"order"`
	Owner     string          `json:"owner"`     // API key (not maker address!)
	OrderType string          `json:"orderType"` // GTC, FOK, GTD, or FAK
}

// OrderSubmissionResponse represents the response from POST /order.
// This is different from OrderQueryResponse (GET /order).
type OrderSubmissionResponse struct {
	Success      bool     `json:"success"`
	ErrorMsg     string   `json:"errorMsg"`
	OrderID      string   `json:"orderId"` // Note: lowercase 'd' per API spec
	OrderHashes  []string `json:"orderHashes"`
	Status       string   `json:"status"` // matched, live, delayed, unmatched
	TakingAmount string   `json:"takingAmount"`
	MakingAmount string   `json:"makingAmount"`
}

// OrderQueryResponse represents the response from GET /order/{id}.
// Price and size fields arrive as decimal strings and stay that way until
// the execution layer parses them.
type OrderQueryResponse struct {
	OrderID    string `json:"orderID"` // Capital D in GET endpoint
	Status     string `json:"status"`
	TokenID    string `json:"asset_id"`
	Price      string `json:"price"`
	Size       string `json:"original_size"`
	SizeFilled string `json:"size_matched"`
	Side       string `json:"side"`
	OrderType  string `json:"type"`
	MarketID   string `json:"market"`
	Outcome    string `json:"outcome"`
	CreatedAt  string `json:"created_at"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CancelResponse represents the response from DELETE /order.
type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}

// Known Polymarket CLOB API error codes.
const (
	ErrInvalidMinTickSize = "INVALID_ORDER_MIN_TICK_SIZE"
	ErrNotEnoughBalance   = "INVALID_ORDER_NOT_ENOUGH_BALANCE"
	ErrFOKNotFilled       = "FOK_ORDER_NOT_FILLED_ERROR"
	ErrMarketNotReady     = "MARKET_NOT_READY"
	ErrUnmatched          = "UNMATCHED"
)
