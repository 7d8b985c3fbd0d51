// Package config defines certprep configuration and its layered loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certprep/internal/app"
)

// Storage drivers accepted by storage.driver.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	LogLevel  string `koanf:"log_level" yaml:"log_level"`
	LogFormat string `koanf:"log_format" yaml:"log_format"`

	Storage struct {
		Driver string `koanf:"driver" yaml:"driver"`
		// Path is the data directory for the file and sqlite drivers.
		Path  string `koanf:"path" yaml:"path"`
		Key   string `koanf:"key" yaml:"key"`
		Redis struct {
			Addr     string `koanf:"addr" yaml:"addr"`
			Password string `koanf:"password" yaml:"password"`
			DB       int    `koanf:"db" yaml:"db"`
		} `koanf:"redis" yaml:"redis"`
	} `koanf:"storage" yaml:"storage"`

	Quiz struct {
		// Limit caps how many questions a session draws. Zero keeps the full list.
		Limit   int    `koanf:"limit" yaml:"limit"`
		Shuffle bool   `koanf:"shuffle" yaml:"shuffle"`
		Seed    int64  `koanf:"seed" yaml:"seed"`
		Dir     string `koanf:"dir" yaml:"dir"`
		// CacheTTL bounds how long a parsed bank is reused by serve.
		CacheTTL string `koanf:"cache_ttl" yaml:"cache_ttl"`
	} `koanf:"quiz" yaml:"quiz"`

	Server struct {
		Addr           string   `koanf:"addr" yaml:"addr"`
		AllowedOrigins []string `koanf:"allowed_origins" yaml:"allowed_origins"`
	} `koanf:"server" yaml:"server"`

	Metrics struct {
		Textfile string `koanf:"textfile" yaml:"textfile"`
	} `koanf:"metrics" yaml:"metrics"`
}

// New returns a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:  "info",
		LogFormat: "text",
	}
	c.Storage.Driver = DriverFile
	c.Storage.Path = defaultDataDir()
	c.Storage.Key = app.DefaultLeaderboardKey
	c.Storage.Redis.Addr = "localhost:6379"
	c.Quiz.Dir = "banks"
	c.Quiz.CacheTTL = "10m"
	c.Server.Addr = ":8080"
	c.Server.AllowedOrigins = []string{"*"}
	return c
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("%w: storage.key must not be empty", ErrInvalidConfig)
	}
	if c.Quiz.Limit < 0 {
		return fmt.Errorf("%w: quiz.limit must not be negative", ErrInvalidConfig)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "certprep")
	}
	return ".certprep"
}
