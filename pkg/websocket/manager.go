// Package websocket maintains the market-channel connection to the CLOB
// and mirrors L2 book state for the two legs of the active window.
package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/pkg/types"
)

// Manager manages a single WebSocket connection to the CLOB market channel.
type Manager struct {
	url          string
	conn         *websocket.Conn
	logger       *zap.Logger
	reconnectMgr *ReconnectManager
	config       Config
	messageChan  chan *types.BookMessage
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	subscribed   map[string]bool
	connected    atomic.Bool
	lastPongTime atomic.Int64
}

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	MessageBufferSize     int
	Logger                *zap.Logger
}

// New creates a WebSocket manager.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.MessageBufferSize <= 0 {
		cfg.MessageBufferSize = 1000
	}

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.2,
	}

	return &Manager{
		url:          cfg.URL,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		messageChan:  make(chan *types.BookMessage, cfg.MessageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		subscribed:   make(map[string]bool),
	}
}

// Start connects and launches the read, ping and reconnect loops.
func (m *Manager) Start() error {
	m.logger.Info("websocket-manager-starting", zap.String("url", m.url))

	if err := m.connect(m.ctx); err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	m.wg.Add(3)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()

	return nil
}

func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	m.connected.Store(true)
	m.lastPongTime.Store(time.Now().Unix())
	ActiveConnections.Set(1)

	m.logger.Info("websocket-connected")
	return nil
}

// Subscribe adds token IDs to the market-channel subscription. The tokens
// for a new window replace nothing; Unsubscribe the old window first.
func (m *Manager) Subscribe(tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	newTokens := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if !m.subscribed[tokenID] {
			newTokens = append(newTokens, tokenID)
			m.subscribed[tokenID] = true
		}
	}
	if len(newTokens) == 0 {
		m.mu.Unlock()
		return nil
	}

	var msg map[string]interface{}
	if len(m.subscribed) == len(newTokens) {
		msg = map[string]interface{}{
			"assets_ids": newTokens,
			"type":       "market",
		}
	} else {
		msg = map[string]interface{}{
			"assets_ids": newTokens,
			"operation":  "subscribe",
		}
	}
	total := len(m.subscribed)
	conn := m.conn
	m.mu.Unlock()

	// Network I/O without holding the lock.
	if err := conn.WriteJSON(msg); err != nil {
		m.mu.Lock()
		for _, tokenID := range newTokens {
			delete(m.subscribed, tokenID)
		}
		total = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.Set(float64(total))
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(total))
	m.logger.Info("subscribed-to-tokens",
		zap.Int("new-count", len(newTokens)),
		zap.Int("total-count", total))
	return nil
}

// Unsubscribe drops token IDs from the subscription, used when a window
// closes and the feed rotates to the next market.
func (m *Manager) Unsubscribe(tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	dropped := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if m.subscribed[tokenID] {
			dropped = append(dropped, tokenID)
			delete(m.subscribed, tokenID)
		}
	}
	if len(dropped) == 0 {
		m.mu.Unlock()
		return nil
	}

	msg := map[string]interface{}{
		"assets_ids": dropped,
		"operation":  "unsubscribe",
	}
	total := len(m.subscribed)
	conn := m.conn
	m.mu.Unlock()

	if err := conn.WriteJSON(msg); err != nil {
		m.mu.Lock()
		for _, tokenID := range dropped {
			m.subscribed[tokenID] = true
		}
		total = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.Set(float64(total))
		return fmt.Errorf("write unsubscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(total))
	m.logger.Info("unsubscribed-from-tokens",
		zap.Int("count", len(dropped)),
		zap.Int("remaining-count", total))
	return nil
}

func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			m.logger.Warn("read-error", zap.Error(err))
			m.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		// The market channel sends arrays of messages.
		var bookMsgs []types.BookMessage
		if err := json.Unmarshal(message, &bookMsgs); err != nil {
			if len(message) < 10 {
				continue // heartbeat
			}
			m.logger.Debug("websocket-unparseable-message",
				zap.Error(err),
				zap.Int("bytes", len(message)))
			continue
		}

		for i := range bookMsgs {
			msg := &bookMsgs[i]
			MessagesReceivedTotal.WithLabelValues(msg.EventType).Inc()

			select {
			case m.messageChan <- msg:
			default:
				m.logger.Warn("message-channel-full", zap.String("event-type", msg.EventType))
				MessagesDroppedTotal.Inc()
			}
		}
	}
}

func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()
			if conn == nil {
				continue
			}

			// A stale pong means the peer is gone even if writes still
			// succeed. Closing the conn fails the read loop, which hands
			// off to the reconnect loop.
			lastPong := time.Unix(m.lastPongTime.Load(), 0)
			if m.config.PongTimeout > 0 && time.Since(lastPong) > m.config.PongTimeout {
				m.logger.Warn("pong-timeout", zap.Time("last-pong", lastPong))
				conn.Close()
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if m.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		if err := m.resubscribeAll(); err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
			m.connected.Store(false)
			continue
		}

		m.wg.Add(1)
		go m.readLoop()
	}
}

func (m *Manager) resubscribeAll() error {
	m.mu.RLock()
	tokenIDs := make([]string, 0, len(m.subscribed))
	for tokenID := range m.subscribed {
		tokenIDs = append(tokenIDs, tokenID)
	}
	conn := m.conn
	m.mu.RUnlock()

	if len(tokenIDs) == 0 {
		return nil
	}

	msg := map[string]interface{}{
		"assets_ids": tokenIDs,
		"type":       "market",
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	m.logger.Info("resubscribed-after-reconnect", zap.Int("count", len(tokenIDs)))
	return nil
}

// MessageChan returns the channel of decoded book messages.
func (m *Manager) MessageChan() <-chan *types.BookMessage {
	return m.messageChan
}

// Close stops all loops and closes the connection.
func (m *Manager) Close() error {
	m.logger.Info("closing-websocket-manager")

	m.cancel()

	m.mu.RLock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.RUnlock()

	m.wg.Wait()
	close(m.messageChan)
	ActiveConnections.Set(0)
	return nil
}
