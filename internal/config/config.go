// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// defaultCookieFile is picked up automatically when present, for
// age-restricted content.
const defaultCookieFile = "config_cookies.txt"

// Config holds all application configuration.
type Config struct {
	// External tool paths.
	YtdlpPath    string        `json:"ytdlp_path"`
	FfmpegPath   string        `json:"ffmpeg_path"`
	FfprobePath  string        `json:"ffprobe_path"`
	YtdlpTimeout time.Duration `json:"ytdlp_timeout"`

	// Output settings.
	OutputDir string `json:"output_dir"`
	LogFile   string `json:"log_file"`
	LogLevel  string `json:"log_level"`

	// Throttling settings.
	MinRequestDelay  time.Duration `json:"min_request_delay"`
	MaxRequestDelay  time.Duration `json:"max_request_delay"`
	MinDownloadDelay time.Duration `json:"min_download_delay"`
	MaxDownloadDelay time.Duration `json:"max_download_delay"`
	SpeedLimit       string        `json:"speed_limit"`
	MaxAttempts      int           `json:"max_attempts"`

	// Batch settings.
	MaxVideos  int    `json:"max_videos"`
	CookieFile string `json:"cookie_file"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		YtdlpPath:        "yt-dlp",
		FfmpegPath:       "ffmpeg",
		FfprobePath:      "ffprobe",
		YtdlpTimeout:     10 * time.Minute,
		OutputDir:        "downloads",
		LogFile:          "ytaudio.log",
		LogLevel:         "info",
		MinRequestDelay:  3 * time.Second,
		MaxRequestDelay:  5 * time.Second,
		MinDownloadDelay: 5 * time.Second,
		MaxDownloadDelay: 10 * time.Second,
		SpeedLimit:       "500K",
		MaxAttempts:      3,
		MaxVideos:        0,
	}
}

// Load loads configuration from the config file and environment variables,
// applying defaults. Priority: env vars > config file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if cfg.CookieFile == "" {
		if _, err := os.Stat(defaultCookieFile); err == nil {
			cfg.CookieFile = defaultCookieFile
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytaudio.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytaudio.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytaudio", "ytaudio.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTAUDIO_YTDLP_PATH"); v != "" {
		c.YtdlpPath = v
	}
	if v := os.Getenv("YTAUDIO_FFMPEG_PATH"); v != "" {
		c.FfmpegPath = v
	}
	if v := os.Getenv("YTAUDIO_FFPROBE_PATH"); v != "" {
		c.FfprobePath = v
	}
	if v := os.Getenv("YTAUDIO_YTDLP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.YtdlpTimeout = d
		}
	}
	if v := os.Getenv("YTAUDIO_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("YTAUDIO_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("YTAUDIO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("YTAUDIO_SPEED_LIMIT"); v != "" {
		c.SpeedLimit = v
	}
	if v := os.Getenv("YTAUDIO_MAX_VIDEOS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxVideos = n
		}
	}
	if v := os.Getenv("YTAUDIO_COOKIE_FILE"); v != "" {
		c.CookieFile = v
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.YtdlpTimeout <= 0 {
		return fmt.Errorf("ytdlp_timeout must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.MinRequestDelay <= 0 || c.MaxRequestDelay <= 0 {
		return fmt.Errorf("request delays must be positive")
	}
	if c.MaxRequestDelay < c.MinRequestDelay {
		return fmt.Errorf("max_request_delay must be >= min_request_delay")
	}
	if c.MinDownloadDelay <= 0 || c.MaxDownloadDelay <= 0 {
		return fmt.Errorf("download delays must be positive")
	}
	if c.MaxDownloadDelay < c.MinDownloadDelay {
		return fmt.Errorf("max_download_delay must be >= min_download_delay")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1")
	}
	if c.MaxVideos < 0 {
		return fmt.Errorf("max_videos must be non-negative")
	}
	if c.SpeedLimit != "" {
		if _, err := ParseSpeedLimit(c.SpeedLimit); err != nil {
			return err
		}
	}
	return nil
}

// ParseSpeedLimit parses a transfer-rate cap like "500K" or "1M" into
// bytes per second.
func ParseSpeedLimit(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("empty speed limit")
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(v, "K"):
		multiplier = 1024
		v = strings.TrimSuffix(v, "K")
	case strings.HasSuffix(v, "M"):
		multiplier = 1024 * 1024
		v = strings.TrimSuffix(v, "M")
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid speed limit %q", s)
	}
	return int64(n * float64(multiplier)), nil
}
