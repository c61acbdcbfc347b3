package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/saransh1220/procurement-console/internal/shared/infrastructure/database"
	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional YAML file whose keys mirror the
// environment variables in lower case.
const ConfigFileEnv = "NOTIFY_CONFIG"

// Config holds all configuration for the console and the stub backend
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Session SessionConfig
	Redis   database.RedisConfig
	Sync    SyncConfig
	JWT     JWTConfig
	Log     LogConfig
}

// ServerConfig holds stub server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// APIConfig locates the notification backend
type APIConfig struct {
	BaseURL string
	LiveURL string
}

// SessionConfig tunes history polling and reconnection
type SessionConfig struct {
	PollInterval   time.Duration
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	BackoffFactor  float64
}

// SyncConfig holds the cross-tab channel name
type SyncConfig struct {
	Channel string
}

// JWTConfig holds JWT configuration. An empty secret disables verification
// and issuing.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type LogConfig struct {
	Level string
}

var defaults = map[string]any{
	"port":            "8080",
	"allowed_origins": "http://localhost:4200",
	"api_base_url":    "http://localhost:8080",
	"ws_url":          "ws://localhost:8080/ws",
	"poll_interval":   "30s",
	"backoff_floor":   "1s",
	"backoff_ceiling": "30s",
	"backoff_factor":  1.8,
	"redis_host":      "",
	"redis_port":      "6379",
	"redis_password":  "",
	"redis_db":        0,
	"sync_channel":    "notifications_channel",
	"jwt_secret":      "",
	"jwt_expiration":  "24h",
	"log_level":       "info",
}

// Load reads configuration from the environment, layered over the YAML file
// named by NOTIFY_CONFIG when it is set.
func Load() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	return Config{
		Server: ServerConfig{
			Port:           v.GetString("port"),
			AllowedOrigins: v.GetString("allowed_origins"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api_base_url"), "/"),
			LiveURL: v.GetString("ws_url"),
		},
		Session: SessionConfig{
			PollInterval:   parseDuration(v.GetString("poll_interval"), 30*time.Second),
			BackoffFloor:   parseDuration(v.GetString("backoff_floor"), time.Second),
			BackoffCeiling: parseDuration(v.GetString("backoff_ceiling"), 30*time.Second),
			BackoffFactor:  parseFactor(v.GetFloat64("backoff_factor"), 1.8),
		},
		Redis: database.RedisConfig{
			Host:     v.GetString("redis_host"),
			Port:     v.GetString("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Sync: SyncConfig{
			Channel: v.GetString("sync_channel"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt_secret"),
			Expiry: parseDuration(v.GetString("jwt_expiration"), 24*time.Hour),
		},
		Log: LogConfig{
			Level: v.GetString("log_level"),
		},
	}, nil
}

// SlogLevel maps Level onto slog, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// parseDuration parses a positive duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	return defaultValue
}

func parseFactor(value, defaultValue float64) float64 {
	if value < 1 {
		return defaultValue
	}
	return value
}
