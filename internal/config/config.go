// Package config loads the application configuration from environment
// variables with command-line overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// globalConfig stores the configuration loaded with command-line overrides
// so other packages can access the same configuration the server loaded.
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Session SessionConfig `json:"session"`
	Logging LoggingConfig `json:"logging"`
}

// LoadOptions holds command-line override options.
type LoadOptions struct {
	Host       string
	Port       string
	LogLevel   string
	ConfigFile string
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host         string        `json:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port         string        `json:"port" env:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `json:"readTimeout" env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `json:"writeTimeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `json:"idleTimeout" env:"SERVER_IDLE_TIMEOUT" default:"120s"`
}

// SessionConfig holds the negotiated screen-streaming session parameters:
// screen geometry, palette size K, scale percent s, and transport framing.
//
// Algorithm and QuantiserKind are not part of the wire handshake (see
// internal/session's Config) — both ends must be started with matching
// values, the same way they must agree on HeaderSize.
type SessionConfig struct {
	ScreenWidth        int           `json:"screenWidth" env:"SESSION_SCREEN_WIDTH" default:"1920"`
	ScreenHeight       int           `json:"screenHeight" env:"SESSION_SCREEN_HEIGHT" default:"1080"`
	PaletteSize        int           `json:"paletteSize" env:"SESSION_PALETTE_SIZE" default:"16"`
	ScalePercent       int           `json:"scalePercent" env:"SESSION_SCALE_PERCENT" default:"60"`
	HeaderSize         int           `json:"headerSize" env:"SESSION_HEADER_SIZE" default:"4"`
	Algorithm          string        `json:"algorithm" env:"SESSION_ALGORITHM" default:"zlib"`
	QuantiserKind      string        `json:"quantiserKind" env:"SESSION_QUANTISER_KIND" default:"greyscale"`
	PaletteCacheDir    string        `json:"paletteCacheDir" env:"SESSION_PALETTE_CACHE_DIR" default:"./palette-cache"`
	RequestGateTimeout time.Duration `json:"requestGateTimeout" env:"SESSION_REQUEST_GATE_TIMEOUT" default:"10ms"`
	RefreshTick        time.Duration `json:"refreshTick" env:"SESSION_REFRESH_TICK" default:"33ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level        string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format       string `json:"format" env:"LOG_FORMAT" default:"text"`
	EnableCaller bool   `json:"enableCaller" env:"LOG_ENABLE_CALLER" default:"false"`
	File         string `json:"file" env:"LOG_FILE" default:""`
	MaxSizeMB    int    `json:"maxSizeMB" env:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups   int    `json:"maxBackups" env:"LOG_MAX_BACKUPS" default:"3"`
	MaxAgeDays   int    `json:"maxAgeDays" env:"LOG_MAX_AGE_DAYS" default:"28"`
}

// Load loads configuration from environment variables with defaults.
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration with command-line overrides.
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	config := &Config{}

	config.Server.Host = getOverrideOrEnv(opts.Host, "SERVER_HOST", "0.0.0.0")
	config.Server.Port = getOverrideOrEnv(opts.Port, "SERVER_PORT", "8080")
	config.Server.ReadTimeout = getDurationWithDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	config.Server.WriteTimeout = getDurationWithDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	config.Server.IdleTimeout = getDurationWithDefault("SERVER_IDLE_TIMEOUT", 120*time.Second)

	config.Session.ScreenWidth = getIntWithDefault("SESSION_SCREEN_WIDTH", 1920)
	config.Session.ScreenHeight = getIntWithDefault("SESSION_SCREEN_HEIGHT", 1080)
	config.Session.PaletteSize = getIntWithDefault("SESSION_PALETTE_SIZE", 16)
	config.Session.ScalePercent = getIntWithDefault("SESSION_SCALE_PERCENT", 60)
	config.Session.HeaderSize = getIntWithDefault("SESSION_HEADER_SIZE", 4)
	config.Session.Algorithm = getEnvWithDefault("SESSION_ALGORITHM", "zlib")
	config.Session.QuantiserKind = getEnvWithDefault("SESSION_QUANTISER_KIND", "greyscale")
	config.Session.PaletteCacheDir = getEnvWithDefault("SESSION_PALETTE_CACHE_DIR", "./palette-cache")
	config.Session.RequestGateTimeout = getDurationWithDefault("SESSION_REQUEST_GATE_TIMEOUT", 10*time.Millisecond)
	config.Session.RefreshTick = getDurationWithDefault("SESSION_REFRESH_TICK", 33*time.Millisecond)

	config.Logging.Level = getOverrideOrEnv(opts.LogLevel, "LOG_LEVEL", "info")
	config.Logging.Format = getEnvWithDefault("LOG_FORMAT", "text")
	config.Logging.EnableCaller = getBoolWithDefault("LOG_ENABLE_CALLER", false)
	config.Logging.File = getEnvWithDefault("LOG_FILE", "")
	config.Logging.MaxSizeMB = getIntWithDefault("LOG_MAX_SIZE_MB", 100)
	config.Logging.MaxBackups = getIntWithDefault("LOG_MAX_BACKUPS", 3)
	config.Logging.MaxAgeDays = getIntWithDefault("LOG_MAX_AGE_DAYS", 28)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = config
	configMutex.Unlock()

	return config, nil
}

// GetGlobalConfig returns the globally stored configuration loaded by the
// server with command-line overrides.
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.Session.ScreenWidth <= 0 || c.Session.ScreenHeight <= 0 {
		return fmt.Errorf("screen dimensions must be positive")
	}
	if c.Session.PaletteSize < 1 || c.Session.PaletteSize > 256 {
		return fmt.Errorf("palette size must be in [1,256]")
	}
	if c.Session.ScalePercent < 1 || c.Session.ScalePercent > 100 {
		return fmt.Errorf("scale percent must be in [1,100]")
	}
	if c.Session.HeaderSize < 1 || c.Session.HeaderSize > 8 {
		return fmt.Errorf("header size must be in [1,8]")
	}

	validAlgorithms := map[string]bool{"zlib": true, "bzip2": true, "lzma": true}
	if !validAlgorithms[c.Session.Algorithm] {
		return fmt.Errorf("invalid compression algorithm: %s", c.Session.Algorithm)
	}

	validQuantiserKinds := map[string]bool{"greyscale": true, "rgb": true}
	if !validQuantiserKinds[c.Session.QuantiserKind] {
		return fmt.Errorf("invalid quantiser kind: %s", c.Session.QuantiserKind)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Helper functions for environment variable parsing.

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getOverrideOrEnv returns the command-line override value, env value, or
// default, in that priority order.
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}
