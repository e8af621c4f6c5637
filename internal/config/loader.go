package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a TOML or YAML configuration file at path (chosen by extension),
// merges it on top of the built-in defaults, applies AUCTION_* environment
// variable overrides, and returns the final Config. An empty path skips the
// file. The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("config: failed to parse TOML %s: %w", path, err)
		}
		return nil
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // Reject unknown fields
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("config: failed to parse YAML %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("config: unsupported file extension %q (use .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// applyEnvOverrides reads well-known AUCTION_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Client ──
	setStr(&cfg.Client.SessionID, "AUCTION_CLIENT_SESSION_ID")
	setStr(&cfg.Client.DisplayName, "AUCTION_CLIENT_DISPLAY_NAME")
	setInt(&cfg.Client.InboxSize, "AUCTION_CLIENT_INBOX_SIZE")

	// ── Transport ──
	setStr(&cfg.Transport.Kind, "AUCTION_TRANSPORT_KIND")
	setStr(&cfg.Transport.NATS.URL, "AUCTION_TRANSPORT_NATS_URL")
	setStr(&cfg.Transport.NATS.Subject, "AUCTION_TRANSPORT_NATS_SUBJECT")
	setStr(&cfg.Transport.Redis.Addr, "AUCTION_TRANSPORT_REDIS_ADDR")
	setStr(&cfg.Transport.Redis.Password, "AUCTION_TRANSPORT_REDIS_PASSWORD")
	setInt(&cfg.Transport.Redis.DB, "AUCTION_TRANSPORT_REDIS_DB")
	setBool(&cfg.Transport.Redis.TLSEnabled, "AUCTION_TRANSPORT_REDIS_TLS_ENABLED")
	setStr(&cfg.Transport.Redis.Channel, "AUCTION_TRANSPORT_REDIS_CHANNEL")
	setStr(&cfg.Transport.Websocket.URL, "AUCTION_TRANSPORT_WEBSOCKET_URL")

	// ── Lifecycle ──
	setDuration(&cfg.Lifecycle.TickInterval, "AUCTION_LIFECYCLE_TICK_INTERVAL")

	// ── Server / Relay ──
	setStr(&cfg.Server.Addr, "AUCTION_SERVER_ADDR")
	setStringSlice(&cfg.Server.CORSOrigins, "AUCTION_SERVER_CORS_ORIGINS")
	setStr(&cfg.Relay.Addr, "AUCTION_RELAY_ADDR")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "AUCTION_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.TelegramToken, "AUCTION_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "AUCTION_NOTIFY_TELEGRAM_CHAT_ID")
	setStringSlice(&cfg.Notify.Events, "AUCTION_NOTIFY_EVENTS")

	setStr(&cfg.LogLevel, "AUCTION_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
