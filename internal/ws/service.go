package ws

import (
	"github.com/rs/zerolog"

	"github.com/remote-agent-terminal/patternrelay/internal/config"
	"github.com/remote-agent-terminal/patternrelay/internal/logging"
	"github.com/remote-agent-terminal/patternrelay/internal/metrics"
	"github.com/remote-agent-terminal/patternrelay/internal/model"
	"github.com/remote-agent-terminal/patternrelay/internal/transcript"
)

// Service wires the hub, the connection handler, metrics and the optional
// transcript together.
type Service struct {
	hub      *Hub
	handler  *Handler
	metrics  *metrics.Metrics
	recorder *transcript.Recorder
	logger   zerolog.Logger
}

// NewService creates the relay service. recorder may be nil.
func NewService(cfg config.Server, m *metrics.Metrics, recorder *transcript.Recorder, logger zerolog.Logger) *Service {
	s := &Service{
		metrics:  m,
		recorder: recorder,
		logger:   logging.Component(logger, "relay"),
	}
	s.hub = NewHub(cfg.Backlog, s)
	s.handler = NewHandler(s.hub, HandlerOptions{
		SendQueueSize:  cfg.SendQueueSize,
		MaxMessageSize: cfg.MaxMessageSize,
		PingPeriod:     cfg.PingPeriod.Duration,
	}, s.logger)
	return s
}

// Handler returns the WebSocket handler.
func (s *Service) Handler() *Handler {
	return s.handler
}

// Hub returns the hub.
func (s *Service) Hub() *Hub {
	return s.hub
}

// ClientJoined implements Observer.
func (s *Service) ClientJoined(c *Client) {
	s.metrics.ClientConnected()
	s.logger.Info().Str("remote", c.Addr()).Int("clients", s.hub.ClientCount()).Msg("Client connected")
	s.record(func(r *transcript.Recorder) error { return r.RecordJoin(c.Addr()) })
}

// ClientLeft implements Observer.
func (s *Service) ClientLeft(c *Client) {
	s.metrics.ClientDisconnected()
	s.logger.Info().Str("remote", c.Addr()).Int("clients", s.hub.ClientCount()).Msg("Client disconnected")
	s.record(func(r *transcript.Recorder) error { return r.RecordLeave(c.Addr()) })
}

// ClientDropped implements Observer.
func (s *Service) ClientDropped(c *Client) {
	s.metrics.ClientDropped()
	s.metrics.ClientDisconnected()
	s.logger.Warn().Str("remote", c.Addr()).Msg("Dropped slow client")
	s.record(func(r *transcript.Recorder) error { return r.RecordLeave(c.Addr()) })
}

// MessageRelayed implements Observer.
func (s *Service) MessageRelayed(data []byte) {
	env, err := model.PeekEnvelope(data)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Relayed message is not a JSON object")
	}
	s.metrics.MessageRelayed(string(env.Type))
	s.logger.Debug().Str("type", string(env.Type)).Str("from", env.From).Msg("Relayed message")
	s.record(func(r *transcript.Recorder) error { return r.RecordMessage(data) })
}

func (s *Service) record(write func(r *transcript.Recorder) error) {
	if s.recorder == nil {
		return
	}
	if err := write(s.recorder); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write transcript")
	}
}

// Close disconnects all clients.
func (s *Service) Close() {
	s.hub.Close()
}
