package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultGammaURL is the production Gamma API endpoint.
const DefaultGammaURL = "https://gamma-api.polymarket.com"

// GammaMarket is the Gamma API's market representation. Only the fields the
// resolver needs are decoded.
type GammaMarket struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Question     string `json:"question"`
	Active       bool   `json:"active"`
	Closed       bool   `json:"closed"`
	ClobTokenIDs string `json:"clobTokenIds"` // JSON-encoded string array
}

// TokenIDs decodes the clobTokenIds field, which arrives as a JSON array
// serialized into a string.
func (m *GammaMarket) TokenIDs() ([]string, error) {
	if m.ClobTokenIDs == "" {
		return nil, fmt.Errorf("market %s has no clobTokenIds", m.Slug)
	}
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil, fmt.Errorf("parse clobTokenIds for %s: %w", m.Slug, err)
	}
	return ids, nil
}

// Client is an HTTP client for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Gamma API client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultGammaURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// FetchMarketBySlug looks up a single market by its exact slug. A missing
// slug returns (nil, nil): unknown slugs are an expected outcome while
// probing computed windows.
func (c *Client) FetchMarketBySlug(ctx context.Context, slug string) (*GammaMarket, error) {
	params := url.Values{}
	params.Add("slug", slug)

	markets, err := c.fetchMarkets(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, nil
	}
	return &markets[0], nil
}

// FetchOpenMarkets fetches up to limit open markets for the scan strategy.
func (c *Client) FetchOpenMarkets(ctx context.Context, limit int) ([]GammaMarket, error) {
	params := url.Values{}
	params.Add("closed", "false")
	params.Add("limit", strconv.Itoa(limit))
	return c.fetchMarkets(ctx, params)
}

func (c *Client) fetchMarkets(ctx context.Context, params url.Values) ([]GammaMarket, error) {
	requestURL := fmt.Sprintf("%s/markets?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "updown-arb/1.0")

	c.logger.Debug("fetching-markets", zap.String("url", requestURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// The Gamma API returns a bare array.
	var markets []GammaMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return markets, nil
}
