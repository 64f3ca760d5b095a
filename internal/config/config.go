package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	DB        DatabaseConfig
	RateLimit RateLimitConfig
	Batch     BatchConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	MaxBodyBytes    int64
	EnableHSTS      bool
	EnableProfiling bool
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DataConfig struct {
	Dir              string
	CacheTTL         time.Duration
	ResponseCacheTTL time.Duration
	JanitorInterval  time.Duration
}

type DatabaseConfig struct {
	Enabled      bool
	Dir          string
	MaxOpenConns int
	MaxIdleConns int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	IdleTTL           time.Duration
}

type BatchConfig struct {
	Workers int
}

type LoggingConfig struct {
	Level string
}

// Load reads configuration from the environment. Variables already set win
// over the given env files; with no files, ./.env is read when it exists.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, apperrors.NewConfigurationError("failed to load env file", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigurationError("failed to load .env", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 4<<20)),
			EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
			EnableProfiling: getEnvBool("ENABLE_PROFILING", false),
		},
		Data: DataConfig{
			Dir:              getEnv("DATA_DIR", "./data"),
			CacheTTL:         getEnvDuration("DATASET_CACHE_TTL", time.Hour),
			ResponseCacheTTL: getEnvDuration("RESPONSE_CACHE_TTL", 15*time.Minute),
			JanitorInterval:  getEnvDuration("CACHE_JANITOR_INTERVAL", 5*time.Minute),
		},
		DB: DatabaseConfig{
			Enabled:      getEnvBool("DB_ENABLED", true),
			Dir:          getEnv("DB_DIR", "./data"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 8),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 2),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 20),
			IdleTTL:           getEnvDuration("RATE_LIMIT_IDLE_TTL", 10*time.Minute),
		},
		Batch: BatchConfig{
			Workers: getEnvInt("BATCH_WORKERS", 0),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	problems := map[string]string{}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems["SERVER_PORT"] = fmt.Sprintf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		problems["REQUEST_TIMEOUT"] = "request timeout must be positive"
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems["MAX_BODY_BYTES"] = "body limit must be positive"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		problems["LOG_LEVEL"] = fmt.Sprintf("invalid log level: %s", c.Logging.Level)
	}

	if c.Data.JanitorInterval < time.Second {
		problems["CACHE_JANITOR_INTERVAL"] = "janitor interval must be at least 1 second"
	}
	if c.Data.CacheTTL < 0 || c.Data.ResponseCacheTTL < 0 {
		problems["DATASET_CACHE_TTL"] = "cache TTLs cannot be negative"
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		problems["RATE_LIMIT_RPS"] = "rate limit needs a positive rate and burst"
	}

	if c.DB.Enabled && c.DB.MaxOpenConns < 1 {
		problems["DB_MAX_OPEN_CONNS"] = "at least one database connection is required"
	}

	if c.Batch.Workers < 0 {
		problems["BATCH_WORKERS"] = "worker count cannot be negative"
	}

	if len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap("invalid configuration", problems)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
