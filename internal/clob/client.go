// Package clob is the REST transport to the Polymarket CLOB. It implements
// the execution engine's Transport and BalanceSource interfaces.
package clob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/execution"
	"github.com/mselser95/updown-arb/internal/orderbook"
	"github.com/mselser95/updown-arb/pkg/types"
	"github.com/mselser95/updown-arb/pkg/wallet"
)

// DefaultBaseURL is the production CLOB endpoint.
const DefaultBaseURL = "https://clob.polymarket.com"

// OrderSigner is the slice of the wallet the client needs. The wallet
// signer implements it; tests substitute fakes.
type OrderSigner interface {
	SignOrder(params *wallet.OrderParams) (*types.SignedOrderJSON, error)
	AuthHeaders(method, requestPath string, body []byte) (map[string]string, error)
	APIKey() string
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Signer  OrderSigner
	Logger  *zap.Logger
	Timeout time.Duration
}

// Client talks to the CLOB REST API.
type Client struct {
	baseURL    string
	signer     OrderSigner
	logger     *zap.Logger
	httpClient *http.Client
}

// New creates a CLOB client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signer:     cfg.Signer,
		logger:     cfg.Logger,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchBook retrieves the full depth snapshot for one token. Levels are
// normalized to best-first ordering whatever order the API returned them
// in.
func (c *Client) FetchBook(ctx context.Context, tokenID string, outcome types.Outcome) (*orderbook.OutcomeBook, error) {
	start := time.Now()
	defer func() {
		orderbook.FetchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	endpoint := "/book?token_id=" + url.QueryEscape(tokenID)
	body, err := c.get(ctx, endpoint, false)
	if err != nil {
		return nil, fmt.Errorf("fetch book for %s: %w", tokenID, err)
	}

	var resp types.BookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse book response: %w", err)
	}

	bids, err := orderbook.ParseLevels(resp.Bids)
	if err != nil {
		return nil, fmt.Errorf("parse bids: %w", err)
	}
	asks, err := orderbook.ParseLevels(resp.Asks)
	if err != nil {
		return nil, fmt.Errorf("parse asks: %w", err)
	}

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	return &orderbook.OutcomeBook{
		TokenID:   tokenID,
		Outcome:   outcome,
		Bids:      bids,
		Asks:      asks,
		UpdatedAt: time.Now(),
	}, nil
}

// SubmitOrder signs and posts one order. A FOK order killed by the exchange
// comes back as a rejected ack, not an error: an unfilled pair is a normal
// outcome for the engine to classify.
func (c *Client) SubmitOrder(ctx context.Context, req *execution.OrderRequest) (*execution.OrderAck, error) {
	signed, err := c.signer.SignOrder(&wallet.OrderParams{
		TokenID: req.TokenID,
		Side:    string(req.Side),
		Price:   req.Price,
		Size:    req.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	submission := types.OrderSubmissionRequest{
		Order:     *signed,
		Owner:     c.signer.APIKey(),
		OrderType: string(req.TimeInForce),
	}
	reqBody, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/order", reqBody)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	var resp types.OrderSubmissionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse submission response: %w", err)
	}

	if !resp.Success {
		if resp.ErrorMsg == types.ErrFOKNotFilled {
			c.logger.Debug("fok-order-killed", zap.String("token-id", req.TokenID))
			return &execution.OrderAck{Status: execution.StatusRejected}, nil
		}
		return nil, fmt.Errorf("order rejected: %s", resp.ErrorMsg)
	}

	return &execution.OrderAck{
		OrderID: resp.OrderID,
		Status:  submissionStatus(resp.Status),
	}, nil
}

// PollOrder fetches the current state of an order. Numeric fields arrive as
// strings and are parsed tolerantly: blank means zero, garbage is an error.
func (c *Client) PollOrder(ctx context.Context, orderID string) (*execution.OrderState, error) {
	body, err := c.get(ctx, "/data/order/"+url.PathEscape(orderID), true)
	if err != nil {
		return nil, fmt.Errorf("poll order %s: %w", orderID, err)
	}

	var resp types.OrderQueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse order response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("order query error: %s", resp.Error)
	}

	original, err := parseOptionalDecimal(resp.Size)
	if err != nil {
		return nil, fmt.Errorf("parse original_size %q: %w", resp.Size, err)
	}
	matched, err := parseOptionalDecimal(resp.SizeFilled)
	if err != nil {
		return nil, fmt.Errorf("parse size_matched %q: %w", resp.SizeFilled, err)
	}
	price, err := parseOptionalDecimal(resp.Price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", resp.Price, err)
	}

	return &execution.OrderState{
		OrderID:      orderID,
		Status:       queryStatus(resp.Status, original, matched),
		OriginalSize: original,
		MatchedSize:  matched,
		Price:        price,
	}, nil
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	reqBody, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return fmt.Errorf("marshal cancel: %w", err)
	}

	body, err := c.do(ctx, http.MethodDelete, "/order", reqBody)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	var resp types.CancelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("parse cancel response: %w", err)
	}
	if reason, ok := resp.NotCanceled[orderID]; ok {
		return fmt.Errorf("order %s not cancelled: %s", orderID, reason)
	}
	return nil
}

// Balance reports spendable USDC collateral, scaled down from the raw
// 6-decimal integer.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	body, err := c.get(ctx, "/balance-allowance?asset_type=COLLATERAL", true)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch balance: %w", err)
	}

	var resp struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("parse balance response: %w", err)
	}

	raw, err := parseOptionalDecimal(resp.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", resp.Balance, err)
	}
	return raw.Shift(-6), nil
}

func (c *Client) get(ctx context.Context, endpoint string, authed bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if authed {
		path := endpoint
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		headers, err := c.signer.AuthHeaders(http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}
	return c.send(req)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	headers, err := c.signer.AuthHeaders(method, endpoint, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		RequestErrorsTotal.WithLabelValues(req.URL.Path).Inc()
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	RequestDurationSeconds.WithLabelValues(req.Method, req.URL.Path).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		RequestErrorsTotal.WithLabelValues(req.URL.Path).Inc()
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// submissionStatus maps POST /order statuses onto engine order states.
func submissionStatus(status string) execution.OrderStatus {
	switch strings.ToLower(status) {
	case "matched":
		return execution.StatusFilled
	case "live":
		return execution.StatusOpen
	case "unmatched":
		return execution.StatusRejected
	default:
		return execution.StatusSubmitted
	}
}

// queryStatus maps GET order statuses, promoting a fully matched order to
// filled even when the API still reports it live.
func queryStatus(status string, original, matched decimal.Decimal) execution.OrderStatus {
	if original.IsPositive() && matched.GreaterThanOrEqual(original) {
		return execution.StatusFilled
	}
	switch strings.ToLower(status) {
	case "matched", "filled":
		return execution.StatusFilled
	case "live", "open":
		if matched.IsPositive() {
			return execution.StatusPartiallyFilled
		}
		return execution.StatusOpen
	case "canceled", "cancelled":
		return execution.StatusCancelled
	case "unmatched", "rejected":
		return execution.StatusRejected
	default:
		return execution.StatusSubmitted
	}
}
