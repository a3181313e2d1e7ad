package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"markets-lab/internal/recommended"
)

// SubscriberConfig configures reconnect and timeouts of a Subscriber.
type SubscriberConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	ReadTimeout       time.Duration
	HandshakeTimeout  time.Duration
	Logger            *zap.Logger
}

// DefaultSubscriberConfig returns the default configuration.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       5 * time.Minute,
		HandshakeTimeout:  10 * time.Second,
	}
}

// Subscriber follows the server's live row updates, reconnecting with
// exponential backoff when the connection drops.
type Subscriber struct {
	endpoint string
	config   SubscriberConfig
	logger   *zap.Logger

	updates chan recommended.Update
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSubscriber starts following endpoint (a ws:// URL) until Close.
func NewSubscriber(endpoint string, config *SubscriberConfig) *Subscriber {
	cfg := DefaultSubscriberConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscriber{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.Named("subscriber"),
		updates:  make(chan recommended.Update, 16),
		cancel:   cancel,
	}
	s.wg.Add(1)
	go s.run(ctx)
	return s
}

// Updates returns the update stream. It is closed by Close.
func (s *Subscriber) Updates() <-chan recommended.Update {
	return s.updates
}

// Close stops the subscriber and waits for its goroutine.
func (s *Subscriber) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Subscriber) run(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.updates)

	delay := s.config.ReconnectDelay
	for ctx.Err() == nil {
		received, err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if received {
			delay = s.config.ReconnectDelay
		}
		s.logger.Debug("connection lost, reconnecting", zap.Error(err), zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, s.config.MaxReconnectDelay)
	}
}

// session runs one connection until it fails. received reports whether any
// update arrived.
func (s *Subscriber) session(ctx context.Context) (received bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return received, err
		}

		var u recommended.Update
		if err := json.Unmarshal(data, &u); err != nil {
			s.logger.Warn("dropping malformed update", zap.Error(err))
			continue
		}
		if u.Type != recommended.UpdateTypeRows {
			continue
		}
		received = true

		select {
		case s.updates <- u:
		case <-ctx.Done():
			return received, ctx.Err()
		}
	}
}

// UpdateMsg carries a live update into a bubbletea program.
type UpdateMsg recommended.Update

// WaitForUpdate returns a command that delivers the next update. It yields
// nil once the subscriber is closed.
func WaitForUpdate(s *Subscriber) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-s.Updates()
		if !ok {
			return nil
		}
		return UpdateMsg(u)
	}
}
