package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Persistence (optional)
	Database DatabaseConfig
	SQLite   SQLiteConfig

	// Redis
	Redis RedisConfig

	// External sources
	TWSE    TWSEConfig
	Yahoo   YahooConfig
	FinMind FinMindConfig
	HTTP    HTTPConfig

	// Strategy / output
	StrategyPath string // 스크리닝 파라미터 YAML (비어 있으면 기본값)
	OutputDir    string // today.json 등 결과 파일 위치
	Timezone     string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	Prefix   string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a PostgreSQL URL was provided
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// SQLiteConfig holds the local run archive settings
type SQLiteConfig struct {
	Path    string
	Enabled bool
}

// TWSEConfig holds Taiwan Stock Exchange endpoints
type TWSEConfig struct {
	OpenAPIBaseURL string // openapi.twse.com.tw (keyed objects)
	BaseURL        string // www.twse.com.tw (positional arrays, T86)
	ISINBaseURL    string // isin.twse.com.tw (분류 HTML)
}

// YahooConfig holds Yahoo Finance chart endpoint
type YahooConfig struct {
	BaseURL string
}

// FinMindConfig holds FinMind API configuration
// Token이 없으면 2단계(융자/당일매매) 보강은 건너뜀
type FinMindConfig struct {
	Token   string
	BaseURL string
}

// Enabled reports whether a FinMind credential is configured
func (f FinMindConfig) Enabled() bool {
	return f.Token != ""
}

// HTTPConfig holds outbound HTTP defaults
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "3000"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		SQLite: SQLiteConfig{
			Path:    getEnv("SQLITE_PATH", "data/twpicks.db"),
			Enabled: getEnvAsBool("SQLITE_ENABLED", false),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Prefix:   getEnv("REDIS_PREFIX", "twpicks"),
		},

		TWSE: TWSEConfig{
			OpenAPIBaseURL: getEnv("TWSE_OPENAPI_BASE_URL", "https://openapi.twse.com.tw"),
			BaseURL:        getEnv("TWSE_BASE_URL", "https://www.twse.com.tw"),
			ISINBaseURL:    getEnv("TWSE_ISIN_BASE_URL", "https://isin.twse.com.tw"),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},

		FinMind: FinMindConfig{
			Token:   getEnv("FINMIND_TOKEN", ""),
			BaseURL: getEnv("FINMIND_BASE_URL", "https://api.finmindtrade.com"),
		},

		HTTP: HTTPConfig{
			Timeout:   getEnvAsDuration("HTTP_TIMEOUT", "15s"),
			UserAgent: getEnv("HTTP_USER_AGENT", "Mozilla/5.0"),
		},

		StrategyPath: getEnv("STRATEGY_PATH", ""),
		OutputDir:    getEnv("OUTPUT_DIR", "data"),
		Timezone:     getEnv("TZ_NAME", "Asia/Taipei"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Location returns the configured market timezone (falls back to UTC+8)
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	bases := map[string]string{
		"TWSE_OPENAPI_BASE_URL": c.TWSE.OpenAPIBaseURL,
		"TWSE_BASE_URL":         c.TWSE.BaseURL,
		"TWSE_ISIN_BASE_URL":    c.TWSE.ISINBaseURL,
		"YAHOO_BASE_URL":        c.Yahoo.BaseURL,
		"FINMIND_BASE_URL":      c.FinMind.BaseURL,
	}
	for key, raw := range bases {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
		}
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
