package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Auth       AuthConfig
	Extraction ExtractionConfig
	Enrichment EnrichmentConfig
	Slack      SlackConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings for the event bus.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// AuthConfig holds verification settings for externally issued reviewer
// tokens. There is no local user store; the identity provider signs tokens
// with this shared secret.
type AuthConfig struct {
	JWTSecret string //nolint:gosec // G117: JWT verification secret config
}

// ExtractionConfig holds the document extraction service settings.
type ExtractionConfig struct {
	URL     string
	Timeout time.Duration
}

// EnrichmentConfig holds the personnel system (Ergon) settings.
type EnrichmentConfig struct {
	URL      string
	User     string
	Password string //nolint:gosec // G117: upstream basic-auth config
	Timeout  time.Duration
}

// SlackConfig holds reviewer notification settings. Empty BotToken disables
// notifications.
type SlackConfig struct {
	BotToken      string
	ReviewChannel string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production, sensitive
// values (JWT secret, DB password, upstream credentials) must be set
// explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("CORTEX_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("CORTEX_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("CORTEX_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("CORTEX_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("CORTEX_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	extractionTimeout, err := getEnvDuration("CORTEX_EXTRACTION_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	enrichmentTimeout, err := getEnvDuration("CORTEX_ENRICHMENT_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("CORTEX_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("CORTEX_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("CORTEX_DB_USER", "cortex"),
			Password: getEnv("CORTEX_DB_PASSWORD", ""),
			DBName:   getEnv("CORTEX_DB_NAME", "cortex_dev"),
			SSLMode:  getEnv("CORTEX_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("CORTEX_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("CORTEX_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:         getEnv("CORTEX_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("CORTEX_JWT_SECRET", ""),
		},
		Extraction: ExtractionConfig{
			URL:     getEnv("CORTEX_EXTRACTION_URL", ""),
			Timeout: extractionTimeout,
		},
		Enrichment: EnrichmentConfig{
			URL:      getEnv("CORTEX_ENRICHMENT_URL", ""),
			User:     getEnv("CORTEX_ENRICHMENT_USER", ""),
			Password: getEnv("CORTEX_ENRICHMENT_PASSWORD", ""),
			Timeout:  enrichmentTimeout,
		},
		Slack: SlackConfig{
			BotToken:      getEnv("CORTEX_SLACK_BOT_TOKEN", ""),
			ReviewChannel: getEnv("CORTEX_SLACK_REVIEW_CHANNEL", "#hr-validation"),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.Auth.JWTSecret == "" {
		return errors.New("CORTEX_JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("CORTEX_JWT_SECRET must be at least 32 characters")
	}

	if c.Extraction.URL == "" {
		return errors.New("CORTEX_EXTRACTION_URL is required")
	}
	if c.Enrichment.URL == "" {
		return errors.New("CORTEX_ENRICHMENT_URL is required")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("CORTEX_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("CORTEX_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("CORTEX_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("CORTEX_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("CORTEX_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Extraction.Timeout <= 0 {
		return fmt.Errorf("CORTEX_EXTRACTION_TIMEOUT must be positive, got %s", c.Extraction.Timeout)
	}
	if c.Enrichment.Timeout <= 0 {
		return fmt.Errorf("CORTEX_ENRICHMENT_TIMEOUT must be positive, got %s", c.Enrichment.Timeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
