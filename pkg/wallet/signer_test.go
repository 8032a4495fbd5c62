package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known test vector key, never funded.
const testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testConfig() *Config {
	return &Config{
		PrivateKey: testPrivateKey,
		APIKey:     "test-api-key",
		Secret:     "dGVzdC1zZWNyZXQ=", // "test-secret"
		Passphrase: "test-passphrase",
	}
}

func TestNewSignerDerivesAddress(t *testing.T) {
	signer, err := NewSigner(testConfig())
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", signer.Address())
	assert.Equal(t, "test-api-key", signer.APIKey())
}

func TestNewSignerRejectsGarbageKey(t *testing.T) {
	cfg := testConfig()
	cfg.PrivateKey = "not-a-key"
	_, err := NewSigner(cfg)
	assert.Error(t, err)
}

func TestSignOrderBuyAmounts(t *testing.T) {
	signer, err := NewSigner(testConfig())
	require.NoError(t, err)

	order, err := signer.SignOrder(&OrderParams{
		TokenID: "123456",
		Side:    "BUY",
		Price:   decimal.RequireFromString("0.47"),
		Size:    decimal.RequireFromString("5"),
	})
	require.NoError(t, err)

	// BUY: spend 0.47*5 = 2.35 USDC for 5 shares, both at 6 decimals.
	assert.Equal(t, "2350000", order.MakerAmount)
	assert.Equal(t, "5000000", order.TakerAmount)
	assert.Equal(t, "BUY", order.Side)
	assert.Equal(t, "123456", order.TokenID)
	assert.Equal(t, signer.Address(), order.Maker)
	assert.Equal(t, signer.Address(), order.Signer)
	assert.NotEmpty(t, order.Signature)
	assert.Equal(t, "0x", order.Signature[:2])
}

func TestSignOrderSellSwapsAmounts(t *testing.T) {
	signer, err := NewSigner(testConfig())
	require.NoError(t, err)

	order, err := signer.SignOrder(&OrderParams{
		TokenID: "123456",
		Side:    "SELL",
		Price:   decimal.RequireFromString("0.44"),
		Size:    decimal.RequireFromString("5"),
	})
	require.NoError(t, err)

	// SELL: give 5 shares, receive 0.44*5 = 2.20 USDC.
	assert.Equal(t, "5000000", order.MakerAmount)
	assert.Equal(t, "2200000", order.TakerAmount)
	assert.Equal(t, "SELL", order.Side)
}

func TestSignOrderUsesProxyAsMaker(t *testing.T) {
	cfg := testConfig()
	cfg.ProxyAddress = "0x1111111111111111111111111111111111111111"
	cfg.SignatureType = 1
	signer, err := NewSigner(cfg)
	require.NoError(t, err)

	order, err := signer.SignOrder(&OrderParams{
		TokenID: "123456",
		Side:    "BUY",
		Price:   decimal.RequireFromString("0.5"),
		Size:    decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, "0x1111111111111111111111111111111111111111", order.Maker)
	assert.Equal(t, signer.Address(), order.Signer)
	assert.Equal(t, 1, order.SignatureType)
}

func TestToRawAmountTruncates(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.35", "2350000"},
		{"0.4700001", "470000"},  // sub-micro dust dropped, never rounded up
		{"5", "5000000"},
		{"0.0000009", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toRawAmount(decimal.RequireFromString(tt.in)), "input %s", tt.in)
	}
}

func TestAuthHeaders(t *testing.T) {
	signer, err := NewSigner(testConfig())
	require.NoError(t, err)

	headers, err := signer.AuthHeaders("POST", "/order", []byte(`{"x":1}`))
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", headers["POLY_API_KEY"])
	assert.Equal(t, "test-passphrase", headers["POLY_PASSPHRASE"])
	assert.Equal(t, signer.Address(), headers["POLY_ADDRESS"])
	assert.NotEmpty(t, headers["POLY_SIGNATURE"])
	assert.NotEmpty(t, headers["POLY_TIMESTAMP"])
}

func TestAuthHeadersRejectsBadSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = "!!not-base64!!"
	signer, err := NewSigner(cfg)
	require.NoError(t, err)

	_, err = signer.AuthHeaders("GET", "/data/order/abc", nil)
	assert.Error(t, err)
}
