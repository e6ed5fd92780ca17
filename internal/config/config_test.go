package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    *Config
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			want: &Config{
				Server: ServerConfig{
					Host:         "0.0.0.0",
					Port:         "8080",
					ReadTimeout:  30 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  120 * time.Second,
				},
				Session: SessionConfig{
					ScreenWidth:        1920,
					ScreenHeight:       1080,
					PaletteSize:        16,
					ScalePercent:       60,
					HeaderSize:         4,
					Algorithm:          "zlib",
					QuantiserKind:      "greyscale",
					PaletteCacheDir:    "./palette-cache",
					RequestGateTimeout: 10 * time.Millisecond,
					RefreshTick:        33 * time.Millisecond,
				},
				Logging: LoggingConfig{
					Level:      "info",
					Format:     "text",
					MaxSizeMB:  100,
					MaxBackups: 3,
					MaxAgeDays: 28,
				},
			},
		},
		{
			name: "custom environment variables",
			envVars: map[string]string{
				"SERVER_HOST":           "127.0.0.1",
				"SERVER_PORT":           "9090",
				"LOG_LEVEL":             "debug",
				"SESSION_SCREEN_WIDTH":  "3840",
				"SESSION_SCREEN_HEIGHT": "2160",
				"SESSION_PALETTE_SIZE":   "8",
				"SESSION_ALGORITHM":      "lzma",
				"SESSION_QUANTISER_KIND": "rgb",
			},
			want: &Config{
				Server: ServerConfig{
					Host:         "127.0.0.1",
					Port:         "9090",
					ReadTimeout:  30 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  120 * time.Second,
				},
				Session: SessionConfig{
					ScreenWidth:        3840,
					ScreenHeight:       2160,
					PaletteSize:        8,
					ScalePercent:       60,
					HeaderSize:         4,
					Algorithm:          "lzma",
					QuantiserKind:      "rgb",
					PaletteCacheDir:    "./palette-cache",
					RequestGateTimeout: 10 * time.Millisecond,
					RefreshTick:        33 * time.Millisecond,
				},
				Logging: LoggingConfig{
					Level:      "debug",
					Format:     "text",
					MaxSizeMB:  100,
					MaxBackups: 3,
					MaxAgeDays: 28,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k := range tt.envVars {
				os.Unsetenv(k)
			}
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			t.Cleanup(func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			})

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, tt.want.Server.Host, cfg.Server.Host)
			assert.Equal(t, tt.want.Server.Port, cfg.Server.Port)
			assert.Equal(t, tt.want.Session.ScreenWidth, cfg.Session.ScreenWidth)
			assert.Equal(t, tt.want.Session.ScreenHeight, cfg.Session.ScreenHeight)
			assert.Equal(t, tt.want.Session.PaletteSize, cfg.Session.PaletteSize)
			assert.Equal(t, tt.want.Session.Algorithm, cfg.Session.Algorithm)
			assert.Equal(t, tt.want.Session.QuantiserKind, cfg.Session.QuantiserKind)
			assert.Equal(t, tt.want.Logging.Level, cfg.Logging.Level)
		})
	}
}

func TestLoadWithOverrides(t *testing.T) {
	opts := LoadOptions{
		Host:     "192.168.1.100",
		Port:     "443",
		LogLevel: "warn",
	}

	cfg, err := LoadWithOverrides(opts)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.100", cfg.Server.Host)
	assert.Equal(t, "443", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Host: "0.0.0.0", Port: "8080"},
			Session: SessionConfig{ScreenWidth: 1920, ScreenHeight: 1080, PaletteSize: 16, ScalePercent: 60, HeaderSize: 4, Algorithm: "zlib", QuantiserKind: "greyscale"},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		errMsg  string
	}{
		{name: "valid configuration", mutate: func(c *Config) {}},
		{name: "missing server port", mutate: func(c *Config) { c.Server.Port = "" }, errMsg: "server port cannot be empty"},
		{name: "invalid port range", mutate: func(c *Config) { c.Server.Port = "99999" }, errMsg: "invalid server port"},
		{name: "invalid screen dimensions", mutate: func(c *Config) { c.Session.ScreenWidth = -1 }, errMsg: "screen dimensions must be positive"},
		{name: "palette size out of range", mutate: func(c *Config) { c.Session.PaletteSize = 300 }, errMsg: "palette size"},
		{name: "scale percent out of range", mutate: func(c *Config) { c.Session.ScalePercent = 0 }, errMsg: "scale percent"},
		{name: "header size out of range", mutate: func(c *Config) { c.Session.HeaderSize = 9 }, errMsg: "header size"},
		{name: "invalid algorithm", mutate: func(c *Config) { c.Session.Algorithm = "rar" }, errMsg: "invalid compression algorithm"},
		{name: "invalid quantiser kind", mutate: func(c *Config) { c.Session.QuantiserKind = "cmyk" }, errMsg: "invalid quantiser kind"},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "invalid" }, errMsg: "invalid log level"},
		{name: "invalid log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, errMsg: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetEnvWithDefault(t *testing.T) {
	key := "TEST_CONFIG_VAR"
	os.Unsetenv(key)
	assert.Equal(t, "default", getEnvWithDefault(key, "default"))

	os.Setenv(key, "test_value")
	t.Cleanup(func() { os.Unsetenv(key) })
	assert.Equal(t, "test_value", getEnvWithDefault(key, "default"))
}

func TestGetIntWithDefault(t *testing.T) {
	key := "TEST_INT_VAR"
	os.Unsetenv(key)
	assert.Equal(t, 42, getIntWithDefault(key, 42))

	os.Setenv(key, "100")
	t.Cleanup(func() { os.Unsetenv(key) })
	assert.Equal(t, 100, getIntWithDefault(key, 42))

	os.Setenv(key, "not-a-number")
	assert.Equal(t, 42, getIntWithDefault(key, 42))
}

func TestGetBoolWithDefault(t *testing.T) {
	key := "TEST_BOOL_VAR"
	os.Unsetenv(key)
	assert.False(t, getBoolWithDefault(key, false))

	os.Setenv(key, "true")
	t.Cleanup(func() { os.Unsetenv(key) })
	assert.True(t, getBoolWithDefault(key, false))

	os.Setenv(key, "not-a-bool")
	assert.False(t, getBoolWithDefault(key, false))
}

func TestGetDurationWithDefault(t *testing.T) {
	key := "TEST_DURATION_VAR"
	os.Unsetenv(key)
	assert.Equal(t, 30*time.Second, getDurationWithDefault(key, 30*time.Second))

	os.Setenv(key, "60s")
	t.Cleanup(func() { os.Unsetenv(key) })
	assert.Equal(t, 60*time.Second, getDurationWithDefault(key, 30*time.Second))

	os.Setenv(key, "not-a-duration")
	assert.Equal(t, 30*time.Second, getDurationWithDefault(key, 30*time.Second))
}

func TestGetOverrideOrEnv(t *testing.T) {
	key := "TEST_OVERRIDE_VAR"
	os.Setenv(key, "env_value")
	t.Cleanup(func() { os.Unsetenv(key) })

	assert.Equal(t, "override_value", getOverrideOrEnv("override_value", key, "default_value"))
	assert.Equal(t, "env_value", getOverrideOrEnv("", key, "default_value"))

	os.Unsetenv(key)
	assert.Equal(t, "default_value", getOverrideOrEnv("", key, "default_value"))
}

func TestGetGlobalConfig(t *testing.T) {
	_, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, GetGlobalConfig())
}
