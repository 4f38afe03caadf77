// Package config loads service configuration from .env, an optional YAML
// file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at a YAML config file.
const FileEnv = "SNAPOCR_CONFIG"

type Config struct {
	HTTPAddr      string  `yaml:"http_addr"`
	GRPCAddr      string  `yaml:"grpc_addr"`
	OCRLanguage   string  `yaml:"ocr_language"`
	TesseractPath string  `yaml:"tesseract_path"`
	WatchEnabled  bool    `yaml:"watch_enabled"`
	WatchRate     float64 `yaml:"watch_rate"` // Hz
	LogLevel      string  `yaml:"log_level"`

	// AllowedOrigins lists cross-origin hosts (path.Match patterns such as
	// "localhost:3000") trusted by HTTP and WebSocket. Empty means
	// same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:      "127.0.0.1:8765",
		GRPCAddr:      "127.0.0.1:8766",
		TesseractPath: "tesseract",
		WatchRate:     0.5,
		LogLevel:      "info",
	}
}

// Load builds the configuration. A missing .env or YAML file is not an error;
// an unreadable or invalid YAML file is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring .env", "error", err)
	}

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.GRPCAddr = getEnv("GRPC_ADDR", cfg.GRPCAddr)
	cfg.OCRLanguage = getEnv("OCR_LANGUAGE", cfg.OCRLanguage)
	cfg.TesseractPath = getEnv("TESSERACT_PATH", cfg.TesseractPath)
	cfg.WatchEnabled = getEnvBool("WATCH_ENABLED", cfg.WatchEnabled)
	cfg.WatchRate = getEnvFloat("WATCH_RATE", cfg.WatchRate)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("config file not found", "path", path)
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

// SlogLevel parses LogLevel, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
