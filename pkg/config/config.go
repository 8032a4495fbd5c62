// Package config loads application configuration from environment
// variables. Monetary values are parsed into exact decimals; a malformed
// value falls back to the default rather than aborting startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// MinOrderSize is the exchange's minimum order size in shares.
var MinOrderSize = decimal.NewFromInt(5)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket endpoints
	CLOBBaseURL  string
	GammaBaseURL string
	WSURL        string

	// Credentials
	PrivateKey    string
	ProxyAddress  string
	SignatureType int
	APIKey        string
	Secret        string
	Passphrase    string

	// Trading
	TargetPairCost decimal.Decimal
	OrderSize      decimal.Decimal
	OrderType      string // FOK, FAK, or GTC
	Cooldown       time.Duration
	ScanInterval   time.Duration
	BalanceMargin  decimal.Decimal
	DryRun         bool
	SimBalance     decimal.Decimal

	// Execution polling
	PollInterval time.Duration
	PollTimeout  time.Duration

	// WebSocket feed
	UseWebSocketFeed        bool
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		CLOBBaseURL:  getEnvOrDefault("CLOB_BASE_URL", "https://clob.polymarket.com"),
		GammaBaseURL: getEnvOrDefault("GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		WSURL:        getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),

		PrivateKey:    os.Getenv("PRIVATE_KEY"),
		ProxyAddress:  os.Getenv("PROXY_ADDRESS"),
		SignatureType: getIntOrDefault("SIGNATURE_TYPE", 0),
		APIKey:        os.Getenv("POLYMARKET_API_KEY"),
		Secret:        os.Getenv("POLYMARKET_SECRET"),
		Passphrase:    os.Getenv("POLYMARKET_PASSPHRASE"),

		TargetPairCost: getDecimalOrDefault("TARGET_PAIR_COST", decimal.RequireFromString("0.991")),
		OrderSize:      getDecimalOrDefault("ORDER_SIZE", decimal.NewFromInt(5)),
		OrderType:      getEnvOrDefault("ORDER_TYPE", "FOK"),
		Cooldown:       getDurationOrDefault("COOLDOWN_SECONDS", 10*time.Second),
		ScanInterval:   getDurationOrDefault("SCAN_INTERVAL", 500*time.Millisecond),
		BalanceMargin:  getDecimalOrDefault("BALANCE_MARGIN", decimal.RequireFromString("1.2")),
		DryRun:         getBoolOrDefault("DRY_RUN", true),
		SimBalance:     getDecimalOrDefault("SIM_BALANCE", decimal.NewFromInt(100)),

		PollInterval: getDurationOrDefault("ORDER_POLL_INTERVAL", 250*time.Millisecond),
		PollTimeout:  getDurationOrDefault("ORDER_POLL_TIMEOUT", 3*time.Second),

		UseWebSocketFeed:        getBoolOrDefault("USE_WS_FEED", false),
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "updown"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "updown123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "updown_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks that configuration values are consistent.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	one := decimal.NewFromInt(1)
	if c.TargetPairCost.LessThanOrEqual(decimal.Zero) || c.TargetPairCost.GreaterThanOrEqual(one) {
		return fmt.Errorf("TARGET_PAIR_COST must be between 0 and 1, got %s", c.TargetPairCost)
	}

	if c.OrderSize.LessThan(MinOrderSize) {
		return fmt.Errorf("ORDER_SIZE must be at least %s shares, got %s", MinOrderSize, c.OrderSize)
	}

	switch c.OrderType {
	case "FOK", "FAK", "GTC":
	default:
		return fmt.Errorf("ORDER_TYPE must be FOK, FAK, or GTC, got %q", c.OrderType)
	}

	if c.BalanceMargin.LessThan(one) {
		return fmt.Errorf("BALANCE_MARGIN must be at least 1, got %s", c.BalanceMargin)
	}

	if c.Cooldown < 0 {
		return fmt.Errorf("COOLDOWN_SECONDS cannot be negative")
	}

	if !c.DryRun {
		if c.PrivateKey == "" {
			return fmt.Errorf("PRIVATE_KEY is required for live trading")
		}
		if c.APIKey == "" || c.Secret == "" || c.Passphrase == "" {
			return fmt.Errorf("POLYMARKET_API_KEY, POLYMARKET_SECRET and POLYMARKET_PASSPHRASE are required for live trading")
		}
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

func getDecimalOrDefault(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getDurationOrDefault accepts Go duration strings and, for compatibility
// with the _SECONDS-style variables, bare integers interpreted as seconds.
func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
