package interpreter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/events"
	"github.com/medlingo/interpreter-gateway/internal/observability"
	"github.com/medlingo/interpreter-gateway/internal/realtime"
)

// Transport is the provider connection a session drives. The failure
// handler is invoked when an established connection drops unexpectedly.
type Transport interface {
	Connect(ctx context.Context) error
	SendAudio(audio []byte) error
	OnFailure(fn realtime.FailureHandler)
	Close() error
}

// Session owns one interpretation session: the provider transport, the
// normalizer fed by its inbound messages, and the event bus subscribers
// listen on. Connect and Disconnect are not reentrant; callers serialize
// them.
type Session struct {
	ID  string
	bus *Bus

	normalizer *Normalizer
	transport  Transport

	mu      sync.RWMutex
	status  events.SessionStatus
	started bool

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewSession creates a session for the configured language pair. A nil
// transport means a realtime provider client.
func NewSession(cfg *config.Config, transport Transport) *Session {
	id := uuid.New().String()
	bus := NewBus()
	metrics := observability.NewSessionMetrics(id)

	s := &Session{
		ID:      id,
		bus:     bus,
		status:  events.StatusIdle,
		metrics: metrics,
		logger:  observability.GetLogger().With().Str("component", "session").Str("session_id", id).Logger(),
	}
	s.normalizer = NewNormalizer(bus, cfg.PrimaryLanguage, cfg.SecondaryLanguage, metrics)

	if transport == nil {
		transport = realtime.NewClient(cfg, s.HandleRaw)
	}
	s.transport = transport

	// A dropped provider connection fails the session per the state machine
	transport.OnFailure(func(err error) {
		s.Fail(err.Error())
	})
	return s
}

// Bus returns the session's event bus. Subscribe before Connect.
func (s *Session) Bus() *Bus {
	return s.bus
}

// Status returns the current session status.
func (s *Session) Status() events.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// HandleRaw feeds one inbound provider message to the normalizer.
func (s *Session) HandleRaw(data []byte) {
	s.normalizer.Handle(data)
}

// Connect establishes the provider transport. On failure the session
// transitions to error, publishes the error, and cleans up; it is not
// retried automatically.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.status != events.StatusIdle {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("cannot connect session in status %s", status)
	}
	s.status = events.StatusConnecting
	s.mu.Unlock()
	s.bus.PublishStatus(events.StatusConnecting)

	if err := s.transport.Connect(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Session connect failed")
		s.metrics.RecordError("connection", "session")

		s.mu.Lock()
		s.status = events.StatusError
		s.mu.Unlock()

		s.bus.PublishError(err.Error())
		s.bus.PublishStatus(events.StatusError)
		s.transport.Close()
		return err
	}

	s.mu.Lock()
	s.status = events.StatusConnected
	s.started = true
	s.mu.Unlock()

	s.metrics.RecordSessionStart()
	s.logger.Info().Msg("Session connected")
	s.bus.PublishStatus(events.StatusConnected)
	return nil
}

// SendAudio forwards client audio to the provider.
func (s *Session) SendAudio(audio []byte) error {
	if s.Status() != events.StatusConnected {
		return fmt.Errorf("session is not connected")
	}
	return s.transport.SendAudio(audio)
}

// Fail records a transport-level failure: the session transitions to error
// and publishes the message, then cleans up. Webhook retries in flight are
// unaffected.
func (s *Session) Fail(message string) {
	s.mu.Lock()
	if s.status == events.StatusError || s.status == events.StatusDisconnected {
		s.mu.Unlock()
		return
	}
	s.status = events.StatusError
	s.mu.Unlock()

	s.metrics.RecordError("connection", "session")
	s.bus.PublishError(message)
	s.bus.PublishStatus(events.StatusError)
	s.cleanup()
}

// Disconnect tears the session down. Safe to call multiple times and from
// any state; calls past the first are no-ops.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.status == events.StatusDisconnected {
		s.mu.Unlock()
		return
	}
	s.status = events.StatusDisconnected
	started := s.started
	s.started = false
	s.mu.Unlock()

	s.cleanup()
	if started {
		s.metrics.RecordSessionEnd()
	}
	s.logger.Info().Msg("Session disconnected")
	s.bus.PublishStatus(events.StatusDisconnected)
}

// cleanup closes the transport and discards pending correlation state.
func (s *Session) cleanup() {
	s.transport.Close()
	s.normalizer.Reset()
}
