package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.TargetPairCost.Equal(decimal.RequireFromString("0.991")))
	assert.True(t, cfg.OrderSize.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "FOK", cfg.OrderType)
	assert.Equal(t, 10*time.Second, cfg.Cooldown)
	assert.True(t, cfg.BalanceMargin.Equal(decimal.RequireFromString("1.2")))
	assert.True(t, cfg.DryRun, "dry run on by default")
	assert.True(t, cfg.SimBalance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.PollTimeout)
	assert.Equal(t, "console", cfg.StorageMode)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("TARGET_PAIR_COST", "0.985")
	t.Setenv("ORDER_SIZE", "25")
	t.Setenv("ORDER_TYPE", "GTC")
	t.Setenv("COOLDOWN_SECONDS", "30")
	t.Setenv("DRY_RUN", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.TargetPairCost.Equal(decimal.RequireFromString("0.985")))
	assert.True(t, cfg.OrderSize.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "GTC", cfg.OrderType)
	assert.Equal(t, 30*time.Second, cfg.Cooldown)
}

func TestLoadFromEnvMalformedDecimalFallsBack(t *testing.T) {
	t.Setenv("TARGET_PAIR_COST", "not-a-number")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.TargetPairCost.Equal(decimal.RequireFromString("0.991")))
}

func TestValidateRejectsSmallOrderSize(t *testing.T) {
	t.Setenv("ORDER_SIZE", "3")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORDER_SIZE")
}

func TestValidateRejectsThresholdAtOne(t *testing.T) {
	t.Setenv("TARGET_PAIR_COST", "1.0")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TARGET_PAIR_COST")
}

func TestValidateRejectsUnknownOrderType(t *testing.T) {
	t.Setenv("ORDER_TYPE", "IOC")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORDER_TYPE")
}

func TestValidateLiveRequiresCredentials(t *testing.T) {
	t.Setenv("DRY_RUN", "false")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRIVATE_KEY")
}

func TestValidateLiveWithCredentials(t *testing.T) {
	t.Setenv("DRY_RUN", "false")
	t.Setenv("PRIVATE_KEY", "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("POLYMARKET_API_KEY", "key")
	t.Setenv("POLYMARKET_SECRET", "secret")
	t.Setenv("POLYMARKET_PASSPHRASE", "pass")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.DryRun)
}

func TestValidateRejectsBadStorageMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "redis")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_MODE")
}

func TestDurationAcceptsBareSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("COOLDOWN_SECONDS", "45")
	t.Setenv("SCAN_INTERVAL", "250ms")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Cooldown)
	assert.Equal(t, 250*time.Millisecond, cfg.ScanInterval)
}
