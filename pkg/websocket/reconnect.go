package websocket

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReconnectConfig holds reconnection backoff parameters.
type ReconnectConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64
}

// ReconnectManager applies jittered exponential backoff between
// reconnection attempts.
type ReconnectManager struct {
	config       ReconnectConfig
	logger       *zap.Logger
	mu           sync.Mutex
	currentDelay time.Duration
	attempts     int
}

// NewReconnectManager creates a reconnect manager.
func NewReconnectManager(cfg ReconnectConfig, logger *zap.Logger) *ReconnectManager {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = 2.0
	}

	return &ReconnectManager{
		config:       cfg,
		logger:       logger,
		currentDelay: cfg.InitialDelay,
	}
}

// Reconnect retries connectFn until it succeeds or ctx is cancelled.
func (r *ReconnectManager) Reconnect(ctx context.Context, connectFn func(context.Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		delay := r.nextBackoff()
		r.mu.Lock()
		attempt := r.attempts
		r.mu.Unlock()

		r.logger.Info("reconnect-attempt",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))
		ReconnectAttemptsTotal.Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := connectFn(ctx); err != nil {
			r.logger.Warn("reconnect-failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			r.incrementBackoff()
			continue
		}

		r.Reset()
		return nil
	}
}

// Reset restores the initial delay after a successful connection.
func (r *ReconnectManager) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentDelay = r.config.InitialDelay
	r.attempts = 0
}

func (r *ReconnectManager) nextBackoff() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	delay := r.currentDelay
	if r.config.JitterPercent > 0 {
		jitter := float64(delay) * r.config.JitterPercent * (2*rand.Float64() - 1)
		delay += time.Duration(jitter)
		if delay < 0 {
			delay = r.config.InitialDelay
		}
	}
	return delay
}

func (r *ReconnectManager) incrementBackoff() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts++
	next := time.Duration(float64(r.currentDelay) * r.config.BackoffMultiplier)
	if next > r.config.MaxDelay {
		next = r.config.MaxDelay
	}
	r.currentDelay = next
}

// CurrentDelay returns the delay the next attempt will start from.
func (r *ReconnectManager) CurrentDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentDelay
}

func (r *ReconnectManager) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("reconnect{attempts=%d delay=%s}", r.attempts, r.currentDelay)
}
