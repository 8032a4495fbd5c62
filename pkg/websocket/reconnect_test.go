package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReconnectManager(jitter float64) *ReconnectManager {
	return NewReconnectManager(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          8 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterPercent:     jitter,
	}, zap.NewNop())
}

func TestReconnectSucceedsAfterFailures(t *testing.T) {
	mgr := newTestReconnectManager(0)

	attempts := 0
	err := mgr.Reconnect(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("dial refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// Reset on success.
	assert.Equal(t, time.Millisecond, mgr.CurrentDelay())
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	mgr := newTestReconnectManager(0)

	expected := []time.Duration{
		2 * time.Millisecond,
		4 * time.Millisecond,
		8 * time.Millisecond,
		8 * time.Millisecond, // capped
	}
	for _, want := range expected {
		mgr.incrementBackoff()
		assert.Equal(t, want, mgr.CurrentDelay())
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	mgr := NewReconnectManager(ReconnectConfig{
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.2,
	}, zap.NewNop())

	for i := 0; i < 100; i++ {
		d := mgr.nextBackoff()
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

func TestReconnectHonoursCancellation(t *testing.T) {
	mgr := newTestReconnectManager(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mgr.Reconnect(ctx, func(ctx context.Context) error {
		t.Fatal("connect must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
