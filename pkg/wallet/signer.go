// Package wallet signs CLOB orders with the trading key and produces the
// L2 authentication headers the API requires.
package wallet

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/mselser95/updown-arb/pkg/types"
)

// polygonChainID is the chain the CTF exchange contract lives on.
var polygonChainID = big.NewInt(137)

// zeroTaker makes the order fillable by anyone.
const zeroTaker = "0x0000000000000000000000000000000000000000"

// rawDecimals is the fixed-point scale of on-chain amounts (USDC and
// conditional tokens both use 6 decimals).
const rawDecimals = 6

// OrderParams describes one order to sign.
type OrderParams struct {
	TokenID string
	Side    string // "BUY" or "SELL"
	Price   decimal.Decimal
	Size    decimal.Decimal
}

// Config holds the credentials for order signing and API authentication.
type Config struct {
	PrivateKey    string // hex, with or without 0x prefix
	ProxyAddress  string // optional funder address for proxy wallets
	SignatureType int
	APIKey        string
	Secret        string // URL-safe base64
	Passphrase    string
}

// Signer builds EIP-712 signed orders and HMAC auth headers.
type Signer struct {
	privateKey    *ecdsa.PrivateKey
	address       string
	proxyAddress  string
	signatureType model.SignatureType
	apiKey        string
	secret        string
	passphrase    string
	builder       builder.ExchangeOrderBuilder
}

// NewSigner parses the private key and derives the EOA address.
func NewSigner(cfg *Config) (*Signer, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("derive public key")
	}
	address := crypto.PubkeyToAddress(*publicKey).Hex()

	return &Signer{
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		passphrase:    cfg.Passphrase,
		builder:       builder.NewExchangeOrderBuilderImpl(polygonChainID, nil),
	}, nil
}

// Address returns the signing EOA address.
func (s *Signer) Address() string {
	return s.address
}

// APIKey returns the L2 API key, used as the "owner" field on submissions.
func (s *Signer) APIKey() string {
	return s.apiKey
}

// SignOrder builds and signs one CLOB order. For a BUY the maker amount is
// USDC spent (price * size) and the taker amount is shares received; a SELL
// swaps them.
func (s *Signer) SignOrder(params *OrderParams) (*types.SignedOrderJSON, error) {
	maker := s.address
	if s.proxyAddress != "" {
		maker = s.proxyAddress
	}

	side := model.BUY
	makerAmount := toRawAmount(params.Price.Mul(params.Size))
	takerAmount := toRawAmount(params.Size)
	if params.Side == "SELL" {
		side = model.SELL
		makerAmount = toRawAmount(params.Size)
		takerAmount = toRawAmount(params.Price.Mul(params.Size))
	}

	orderData := &model.OrderData{
		Maker:         maker,
		Taker:         zeroTaker,
		TokenId:       params.TokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          side,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        s.address,
		Expiration:    "0",
		SignatureType: s.signatureType,
	}

	signed, err := s.builder.BuildSignedOrder(s.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("build signed order: %w", err)
	}

	sideStr := "BUY"
	if signed.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	return &types.SignedOrderJSON{
		Salt:          signed.Salt.Int64(),
		Maker:         signed.Maker.Hex(),
		Signer:        signed.Signer.Hex(),
		Taker:         signed.Taker.Hex(),
		TokenID:       signed.TokenId.String(),
		MakerAmount:   signed.MakerAmount.String(),
		TakerAmount:   signed.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    signed.Expiration.String(),
		Nonce:         signed.Nonce.String(),
		FeeRateBps:    signed.FeeRateBps.String(),
		SignatureType: int(signed.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(signed.Signature),
	}, nil
}

// AuthHeaders produces the L2 HMAC headers for one request. The signature
// covers timestamp + method + path + body with the URL-safe base64 decoded
// secret.
func (s *Signer) AuthHeaders(method, requestPath string, body []byte) (map[string]string, error) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	secretBytes, err := base64.URLEncoding.DecodeString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("decode api secret: %w", err)
	}

	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(timestamp + method + requestPath))
	mac.Write(body)
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"POLY_API_KEY":    s.apiKey,
		"POLY_SIGNATURE":  signature,
		"POLY_TIMESTAMP":  timestamp,
		"POLY_PASSPHRASE": s.passphrase,
		"POLY_ADDRESS":    s.address,
	}, nil
}

// toRawAmount scales a decimal USD or share amount to the 6-decimal
// fixed-point integer string the exchange contract expects. Truncation,
// never rounding up: an order must not spend more than quoted.
func toRawAmount(amount decimal.Decimal) string {
	return amount.Shift(rawDecimals).Truncate(0).String()
}
