package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

// Config aggregates every setting of the service.
type Config struct {
	Server    ServerConfig
	Chat      ChatConfig
	Log       LogConfig
	WebSocket WebSocketConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port            string `env:"PORT" envDefault:"8080"`
	Addr            string
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// ChatConfig controls the session store and reply dispatcher.
type ChatConfig struct {
	DefaultLanguage string        `env:"CHAT_DEFAULT_LANGUAGE" envDefault:"en"`
	ReplyDelay      time.Duration `env:"CHAT_REPLY_DELAY" envDefault:"1500ms"`
	CatalogPath     string        `env:"CHAT_CATALOG_PATH"`
	Timezone        string        `env:"CHAT_TIMEZONE" envDefault:"Local"`
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// WebSocketConfig bounds inbound widget traffic per connection.
type WebSocketConfig struct {
	RatePerSecond float64 `env:"WS_RATE_LIMIT" envDefault:"5"`
	Burst         int     `env:"WS_RATE_BURST" envDefault:"10"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	addr, err := listenAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if _, err := cfg.Chat.Language(); err != nil {
		return nil, fmt.Errorf("invalid CHAT_DEFAULT_LANGUAGE: %w", err)
	}
	if _, err := cfg.Chat.Location(); err != nil {
		return nil, fmt.Errorf("invalid CHAT_TIMEZONE: %w", err)
	}
	if cfg.Chat.ReplyDelay < 0 {
		return nil, fmt.Errorf("invalid CHAT_REPLY_DELAY %s: must not be negative", cfg.Chat.ReplyDelay)
	}
	if cfg.WebSocket.RatePerSecond <= 0 || cfg.WebSocket.Burst < 1 {
		return nil, fmt.Errorf("invalid websocket rate limit %v/%d", cfg.WebSocket.RatePerSecond, cfg.WebSocket.Burst)
	}

	return &cfg, nil
}

// Language returns the parsed default language.
func (c ChatConfig) Language() (chat.Language, error) {
	return chat.ParseLanguage(c.DefaultLanguage)
}

// Location returns the zone used to format message times.
func (c ChatConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// listenAddr turns PORT into a listen address.
func listenAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}
