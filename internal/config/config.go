// Package config holds runtime options for the client and the relay server.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/remote-agent-terminal/patternrelay/internal/model"
)

// DefaultEndpoint is the relay URL the client always dials.
const DefaultEndpoint = "ws://localhost:8069/ws"

const (
	// MaxCommandLineSize caps one operator input line. Longer lines are
	// rejected by the client without ending the session.
	MaxCommandLineSize = 1 << 20

	// DefaultMaxMessageSize is the relay read limit. It fits a play command
	// built from a maximal line even when every byte is JSON-escaped.
	DefaultMaxMessageSize = 8 << 20
)

// Client holds connection options for one client session.
type Client struct {
	Endpoint        string
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultClient returns the fixed client configuration.
func DefaultClient() Client {
	return Client{
		Endpoint:        DefaultEndpoint,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// Server holds relay server options. Field names match the TOML keys.
type Server struct {
	Port           string   `toml:"port"`
	StaticDir      string   `toml:"static_dir"`
	Backlog        int      `toml:"backlog"`
	SendQueueSize  int      `toml:"send_queue_size"`
	MaxMessageSize int64    `toml:"max_message_size"`
	PingPeriod     Duration `toml:"ping_period"`
	TranscriptPath string   `toml:"transcript_path"`
}

// Duration wraps time.Duration so TOML values like "30s" decode.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultServer returns the relay defaults.
func DefaultServer() Server {
	return Server{
		Port:           "8069",
		StaticDir:      "public",
		Backlog:        0,
		SendQueueSize:  256,
		MaxMessageSize: DefaultMaxMessageSize,
		PingPeriod:     Duration{54 * time.Second},
	}
}

// LoadServer reads an optional TOML file over the defaults and then applies
// the PORT environment variable.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Server{}, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Server) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", model.ErrInvalidConfig)
	}
	if c.Backlog < 0 {
		return fmt.Errorf("%w: backlog must not be negative", model.ErrInvalidConfig)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("%w: send_queue_size must be positive", model.ErrInvalidConfig)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: max_message_size must be positive", model.ErrInvalidConfig)
	}
	if c.PingPeriod.Duration <= 0 {
		return fmt.Errorf("%w: ping_period must be positive", model.ErrInvalidConfig)
	}
	return nil
}

// Addr returns the listen address.
func (c Server) Addr() string {
	return ":" + c.Port
}
