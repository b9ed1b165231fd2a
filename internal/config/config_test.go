package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/cortex/internal/config"
)

const testSecret = "a-test-jwt-secret-of-sufficient-length"

// setRequired sets the variables without which Load refuses to start.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CORTEX_JWT_SECRET", testSecret)
	t.Setenv("CORTEX_EXTRACTION_URL", "http://extract.internal")
	t.Setenv("CORTEX_ENRICHMENT_URL", "http://ergon.internal")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Enrichment.Timeout)
	assert.Equal(t, "#hr-validation", cfg.Slack.ReviewChannel)
	assert.Empty(t, cfg.Slack.BotToken)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CORTEX_DB_HOST", "db.internal")
	t.Setenv("CORTEX_DB_PORT", "5433")
	t.Setenv("CORTEX_SERVER_ADDR", ":9000")
	t.Setenv("CORTEX_EXTRACTION_TIMEOUT", "90s")
	t.Setenv("CORTEX_CORS_ORIGINS", "https://hr.example.com, https://admin.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 90*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T)
		errText string
	}{
		{
			name:    "missing jwt secret",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_JWT_SECRET", "") },
			errText: "CORTEX_JWT_SECRET is required",
		},
		{
			name:    "short jwt secret",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_JWT_SECRET", "too-short") },
			errText: "at least 32 characters",
		},
		{
			name:    "missing extraction url",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_EXTRACTION_URL", "") },
			errText: "CORTEX_EXTRACTION_URL is required",
		},
		{
			name:    "missing enrichment url",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_ENRICHMENT_URL", "") },
			errText: "CORTEX_ENRICHMENT_URL is required",
		},
		{
			name:    "bad port",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_DB_PORT", "99999") },
			errText: "CORTEX_DB_PORT",
		},
		{
			name:    "unparsable int",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_DB_MAX_CONNS", "many") },
			errText: "CORTEX_DB_MAX_CONNS",
		},
		{
			name:    "unparsable duration",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_SERVER_READ_TIMEOUT", "fast") },
			errText: "CORTEX_SERVER_READ_TIMEOUT",
		},
		{
			name:    "negative timeout",
			mutate:  func(t *testing.T) { t.Setenv("CORTEX_ENRICHMENT_TIMEOUT", "-5s") },
			errText: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			tt.mutate(t)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	c := config.DatabaseConfig{
		Host: "db", Port: 5432, User: "cortex", Password: "pw",
		DBName: "cortex_dev", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db port=5432 user=cortex password=pw dbname=cortex_dev sslmode=require",
		c.DSN())
}
