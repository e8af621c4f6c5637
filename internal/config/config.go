// Package config defines the configuration of an auction client or relay
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Transport kinds accepted in transport.kind.
const (
	TransportMemory    = "memory"
	TransportNATS      = "nats"
	TransportRedis     = "redis"
	TransportWebsocket = "websocket"
)

// Config is the root configuration structure. Fields are populated from a TOML
// or YAML file and then optionally overridden by AUCTION_* environment variables.
type Config struct {
	Client    ClientConfig    `toml:"client" yaml:"client"`
	Transport TransportConfig `toml:"transport" yaml:"transport"`
	Lifecycle LifecycleConfig `toml:"lifecycle" yaml:"lifecycle"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Relay     RelayConfig     `toml:"relay" yaml:"relay"`
	Notify    NotifyConfig    `toml:"notify" yaml:"notify"`
	LogLevel  string          `toml:"log_level" yaml:"log_level"`
}

// ClientConfig holds the identity of the local client. An empty session id is
// replaced with a generated one at startup.
type ClientConfig struct {
	SessionID   string `toml:"session_id" yaml:"session_id"`
	DisplayName string `toml:"display_name" yaml:"display_name"`
	InboxSize   int    `toml:"inbox_size" yaml:"inbox_size"`
}

// TransportConfig selects the broadcast transport and carries the settings of each kind.
type TransportConfig struct {
	Kind      string          `toml:"kind" yaml:"kind"`
	NATS      NATSConfig      `toml:"nats" yaml:"nats"`
	Redis     RedisConfig     `toml:"redis" yaml:"redis"`
	Websocket WebsocketConfig `toml:"websocket" yaml:"websocket"`
}

// NATSConfig holds NATS connection parameters.
type NATSConfig struct {
	URL           string   `toml:"url" yaml:"url"`
	Subject       string   `toml:"subject" yaml:"subject"`
	MaxReconnects int      `toml:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait Duration `toml:"reconnect_wait" yaml:"reconnect_wait"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	Password       string   `toml:"password" yaml:"password"`
	DB             int      `toml:"db" yaml:"db"`
	TLSEnabled     bool     `toml:"tls_enabled" yaml:"tls_enabled"`
	Channel        string   `toml:"channel" yaml:"channel"`
	HealthInterval Duration `toml:"health_interval" yaml:"health_interval"`
}

// WebsocketConfig holds the relay client parameters.
type WebsocketConfig struct {
	URL           string   `toml:"url" yaml:"url"`
	ReconnectWait Duration `toml:"reconnect_wait" yaml:"reconnect_wait"`
}

// LifecycleConfig controls expiry detection.
type LifecycleConfig struct {
	TickInterval Duration `toml:"tick_interval" yaml:"tick_interval"`
}

// ServerConfig holds HTTP UI server parameters.
type ServerConfig struct {
	Addr        string   `toml:"addr" yaml:"addr"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
}

// RelayConfig holds websocket relay server parameters.
type RelayConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url" yaml:"discord_webhook_url"`
	TelegramToken     string   `toml:"telegram_token" yaml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id" yaml:"telegram_chat_id"`
	Events            []string `toml:"events" yaml:"events"`
	QueueSize         int      `toml:"queue_size" yaml:"queue_size"`
}

// Duration is a wrapper around time.Duration that decodes from strings like
// "5m" or "30s" in both TOML and YAML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Client: ClientConfig{
			InboxSize: 256,
		},
		Transport: TransportConfig{
			Kind: TransportNATS,
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				Subject:       "auction.events",
				MaxReconnects: -1,
				ReconnectWait: Duration{2 * time.Second},
			},
			Redis: RedisConfig{
				Addr:           "localhost:6379",
				Channel:        "auction:events",
				HealthInterval: Duration{2 * time.Second},
			},
			Websocket: WebsocketConfig{
				URL:           "ws://localhost:9090/relay",
				ReconnectWait: Duration{2 * time.Second},
			},
		},
		Lifecycle: LifecycleConfig{
			TickInterval: Duration{time.Second},
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Relay: RelayConfig{
			Addr: ":9090",
		},
		Notify: NotifyConfig{
			Events:    []string{"auction_created", "auction_finalized"},
			QueueSize: 64,
		},
		LogLevel: "info",
	}
}

var validTransports = map[string]bool{
	TransportMemory:    true,
	TransportNATS:      true,
	TransportRedis:     true,
	TransportWebsocket: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validNotifyEvents = map[string]bool{
	"auction_created":   true,
	"bid_placed":        true,
	"auction_finalized": true,
	"error":             true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if c.Client.InboxSize < 1 {
		errs = append(errs, "client: inbox_size must be >= 1")
	}

	kind := strings.ToLower(c.Transport.Kind)
	if !validTransports[kind] {
		errs = append(errs, fmt.Sprintf("transport: unknown kind %q (valid: memory, nats, redis, websocket)", c.Transport.Kind))
	}
	switch kind {
	case TransportNATS:
		if c.Transport.NATS.URL == "" {
			errs = append(errs, "transport.nats: url must not be empty")
		}
		if c.Transport.NATS.Subject == "" {
			errs = append(errs, "transport.nats: subject must not be empty")
		}
	case TransportRedis:
		if c.Transport.Redis.Addr == "" {
			errs = append(errs, "transport.redis: addr must not be empty")
		}
		if c.Transport.Redis.Channel == "" {
			errs = append(errs, "transport.redis: channel must not be empty")
		}
	case TransportWebsocket:
		if !strings.HasPrefix(c.Transport.Websocket.URL, "ws://") && !strings.HasPrefix(c.Transport.Websocket.URL, "wss://") {
			errs = append(errs, fmt.Sprintf("transport.websocket: url must start with ws:// or wss://, got %q", c.Transport.Websocket.URL))
		}
	}

	if c.Lifecycle.TickInterval.Duration <= 0 {
		errs = append(errs, "lifecycle: tick_interval must be positive")
	}
	if c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty")
	}
	if c.Relay.Addr == "" {
		errs = append(errs, "relay: addr must not be empty")
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	for _, ev := range c.Notify.Events {
		if !validNotifyEvents[ev] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q", ev))
		}
	}
	if c.Notify.QueueSize < 1 {
		errs = append(errs, "notify: queue_size must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
