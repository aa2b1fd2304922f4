package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/vjranagit/omfseries/pkg/diagcache"
	"github.com/vjranagit/omfseries/pkg/plot"
)

// Config holds the application configuration
type Config struct {
	Log    LogConfig    `json:"log"`
	Diag   DiagConfig   `json:"diag"`
	Cache  CacheConfig  `json:"cache"`
	Chart  ChartConfig  `json:"chart"`
	Server ServerConfig `json:"server"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  slog.Level `json:"level"`
	Format string     `json:"format"`
}

// DiagConfig says where diag files live
type DiagConfig struct {
	Root    string `json:"root"`
	TempDir string `json:"temp_dir"`
}

// CacheConfig holds decoded-table cache configuration; an empty Dir disables it
type CacheConfig struct {
	Dir              string `json:"dir"`
	RetentionDays    int    `json:"retention_days"`
	CompressionLevel int    `json:"compression_level"`
}

// ChartConfig holds rendering configuration
type ChartConfig struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	EmptyBound float64 `json:"empty_bound"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
}

// DefaultConfig returns the configuration from OMF_* environment variables
func DefaultConfig() (*Config, error) {
	level, err := ParseLogLevel(getEnv("OMF_LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Log: LogConfig{
			Level:  level,
			Format: getEnv("OMF_LOG_FORMAT", "dev"),
		},
		Diag: DiagConfig{
			Root:    getEnv("OMF_DIAG_ROOT", "."),
			TempDir: getEnv("OMF_TEMP_DIR", ""),
		},
		Cache: CacheConfig{
			Dir:              getEnv("OMF_CACHE_DIR", ""),
			RetentionDays:    getEnvInt("OMF_CACHE_RETENTION_DAYS", 30),
			CompressionLevel: getEnvInt("OMF_CACHE_COMPRESSION_LEVEL", 3),
		},
		Chart: ChartConfig{
			Width:      getEnvInt("OMF_CHART_WIDTH", 1000),
			Height:     getEnvInt("OMF_CHART_HEIGHT", 500),
			EmptyBound: getEnvFloat("OMF_EMPTY_BOUND", 0),
		},
		Server: ServerConfig{
			ListenAddr: getEnv("OMF_LISTEN_ADDR", ":8080"),
		},
	}, nil
}

// CacheEnabled reports whether a cache directory is configured
func (c *Config) CacheEnabled() bool {
	return c.Cache.Dir != ""
}

// ToCacheConfig converts to diagcache.Config
func (c *Config) ToCacheConfig() *diagcache.Config {
	return &diagcache.Config{
		Path:             c.Cache.Dir,
		RetentionDays:    c.Cache.RetentionDays,
		CompressionLevel: c.Cache.CompressionLevel,
	}
}

// ToRenderer converts to a plot.Renderer
func (c *Config) ToRenderer(format plot.Format) *plot.Renderer {
	return &plot.Renderer{
		Width:      c.Chart.Width,
		Height:     c.Chart.Height,
		Format:     format,
		EmptyBound: c.Chart.EmptyBound,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "dev", "json":
	default:
		return fmt.Errorf("invalid log format %q (allowed: dev, json)", c.Log.Format)
	}

	if c.Diag.Root == "" {
		return fmt.Errorf("diag root is required")
	}

	if c.CacheEnabled() {
		if c.Cache.RetentionDays < 1 {
			return fmt.Errorf("cache retention days must be at least 1")
		}
		if c.Cache.CompressionLevel < 1 || c.Cache.CompressionLevel > 4 {
			return fmt.Errorf("cache compression level must be between 1 and 4")
		}
	}

	if c.Chart.Width < 100 || c.Chart.Height < 100 {
		return fmt.Errorf("chart size %dx%d is too small", c.Chart.Width, c.Chart.Height)
	}

	if c.Chart.EmptyBound < 0 {
		return fmt.Errorf("empty bound must not be negative")
	}

	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	return nil
}

// ParseLogLevel accepts debug, info, warn(ing) and error
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (allowed: debug, info, warn, error)", s)
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
