// Package config loads server configuration from an optional YAML file
// and the environment. Environment variables win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names. Anything other than production is treated as
// development.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

const defaultPort = "3500"

// devOrigins are the cross-origin hosts accepted for the WebSocket
// handshake during development. Production accepts same-origin only.
var devOrigins = []string{"localhost:5500", "127.0.0.1:5500"}

// RateLimitConfig bounds WebSocket handshakes per client IP.
type RateLimitConfig struct {
	Max           int `yaml:"max"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the rate-limit window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Config holds the full server configuration.
type Config struct {
	Port      string          `yaml:"port"`
	Env       string          `yaml:"env"`
	PublicDir string          `yaml:"public_dir"`
	RedisAddr string          `yaml:"redis_addr"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

func defaults() Config {
	return Config{
		Port: defaultPort,
		Env:  EnvDevelopment,
		RateLimit: RateLimitConfig{
			Max:           20,
			WindowSeconds: 60,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment variable overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}
	if dir := os.Getenv("PUBLIC_DIR"); dir != "" {
		cfg.PublicDir = dir
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		cfg.RateLimit.Max = parseInt(v, cfg.RateLimit.Max)
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		cfg.RateLimit.WindowSeconds = parseInt(v, cfg.RateLimit.WindowSeconds)
	}

	cfg.sanitize()
	return cfg, nil
}

func (c *Config) sanitize() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.RateLimit.Max <= 0 {
		c.RateLimit.Max = 20
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// Production reports whether the server runs in production mode.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// OriginPatterns returns the cross-origin hosts allowed for the WebSocket
// handshake. In production the list is empty, which denies all
// cross-origin access.
func (c Config) OriginPatterns() []string {
	if c.Production() {
		return nil
	}
	return append([]string(nil), devOrigins...)
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}
