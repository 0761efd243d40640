package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/remote-agent-terminal/patternrelay/internal/config"
	"github.com/remote-agent-terminal/patternrelay/internal/logging"
	"github.com/remote-agent-terminal/patternrelay/internal/model"
)

const (
	// Time allowed to write the close frame on disconnect.
	closeWait = time.Second

	eventBufferSize = 8
)

// Session owns one relay connection and the client identifier attached to
// every outbound message.
type Session struct {
	cfg      config.Client
	clientID string
	logger   zerolog.Logger
	dialer   *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	used    bool
	state   atomic.Int32
	closing atomic.Bool

	events chan Event
	done   chan struct{}
}

// Option customizes a Session.
type Option func(*Session)

// WithClientID overrides the generated client identifier.
func WithClientID(id string) Option {
	return func(s *Session) {
		s.clientID = id
	}
}

// New creates a disconnected session with a fresh client identifier.
func New(cfg config.Client, logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		clientID: uuid.NewString(),
		logger:   logging.Component(logger, "session"),
		// No handshake timeout and no proxy lookup: the endpoint is local and
		// only the caller's context bounds the dial.
		dialer: &websocket.Dialer{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
		},
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClientID returns the identifier sent in the from field.
func (s *Session) ClientID() string {
	return s.clientID
}

// Endpoint returns the relay URL.
func (s *Session) Endpoint() string {
	return s.cfg.Endpoint
}

// State returns the current connectivity state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Connected reports whether messages are currently being sent.
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// Done is closed after the connection has gone away and every transport
// event has been handled. It never closes for a session that did not connect.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Connect dials the relay. It does not retry. A session connects at most
// once; after a disconnect it returns ErrSessionClosed.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}
	if s.used {
		return fmt.Errorf("%w: %w", model.ErrConnectionFailure, model.ErrSessionClosed)
	}

	conn, _, err := s.dialer.DialContext(ctx, s.cfg.Endpoint, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("endpoint", s.cfg.Endpoint).Msg("Failed to connect")
		return fmt.Errorf("%w: %s: %w", model.ErrConnectionFailure, s.cfg.Endpoint, err)
	}

	s.conn = conn
	s.used = true
	s.setState(StateConnected)
	s.events <- Event{Kind: EventOpen}

	go s.dispatch()
	go s.readPump(conn)

	s.logger.Info().Str("endpoint", s.cfg.Endpoint).Str("client_id", s.clientID).Msg("Connected")
	return nil
}

// Send writes one message. It is a no-op while disconnected. Encoding and
// write failures are logged and returned; the session stays usable.
func (s *Session) Send(msgType model.MessageType, content model.Content) error {
	if !s.Connected() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	msg := model.NewOutboundMessage(msgType, content, s.clientID)
	data, err := msg.Encode()
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(msgType)).Msg("Failed to send message")
		return fmt.Errorf("%w: %w", model.ErrSendFailure, err)
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error().Err(err).Str("type", string(msgType)).Msg("Failed to send message")
		return fmt.Errorf("%w: %w", model.ErrSendFailure, err)
	}

	s.logger.Info().Str("type", string(msgType)).Stringer("content", msg.Content).Msg("Sent")
	return nil
}

// Disconnect closes the connection. It is a no-op without a connection and
// safe to call more than once.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.closing.Store(true)

	// The peer may already be gone; the close frame is best-effort.
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(closeWait))

	err := s.conn.Close()
	s.conn = nil
	s.setState(StateDisconnected)

	s.logger.Info().Msg("Disconnected from server")
	return err
}

// readPump reads until the connection fails. Inbound payloads are not
// interpreted. It is the last sender on the events channel.
func (s *Session) readPump(conn *websocket.Conn) {
	defer close(s.events)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			for _, ev := range s.terminalEvents(err) {
				s.events <- ev
			}
			return
		}
		s.logger.Debug().Int("bytes", len(data)).Msg("Ignoring inbound message")
	}
}

// terminalEvents maps a read error to the events it produces.
func (s *Session) terminalEvents(err error) []Event {
	// gorilla reports an unexpected EOF as a 1006 CloseError; only a close
	// frame from the peer counts as a clean close.
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
		return []Event{{Kind: EventClose, Code: closeErr.Code, Reason: closeErr.Text}}
	}
	if s.closing.Load() {
		return []Event{{Kind: EventClose, Code: websocket.CloseNormalClosure}}
	}
	return []Event{
		{Kind: EventError, Err: err},
		{Kind: EventClose, Code: websocket.CloseAbnormalClosure},
	}
}

// dispatch is the single consumer of transport events.
func (s *Session) dispatch() {
	defer close(s.done)

	for ev := range s.events {
		s.handleEvent(ev)
	}
}

func (s *Session) handleEvent(ev Event) {
	switch ev.Kind {
	case EventOpen:
		s.logger.Info().Msg("WebSocket connection opened")
	case EventError:
		s.logger.Error().Err(ev.Err).Msg("WebSocket error")
	case EventClose:
		s.setState(StateDisconnected)
		s.logger.Info().Int("code", ev.Code).Str("reason", ev.Reason).Msg("WebSocket connection closed")
	}
}
