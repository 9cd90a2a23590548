package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenexus/storefront/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, CatalogFixture, cfg.CatalogSource)
	assert.Equal(t, domain.LanguageEN, cfg.Language())
	assert.True(t, cfg.PaymentsEnabled)
	assert.Equal(t, 1000, cfg.AuthDelayMs)
	assert.Equal(t, 24*time.Hour, cfg.JWTAccessExpiry)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_DefaultLanguage(t *testing.T) {
	t.Setenv("DEFAULT_LANGUAGE", "ZH")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageZH, cfg.Language())
}

func TestLoad_UnknownDefaultLanguage(t *testing.T) {
	t.Setenv("DEFAULT_LANGUAGE", "fr")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_LANGUAGE")
}

func TestLoad_CatalogSource(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"postgres", map[string]string{"CATALOG_SOURCE": "postgres"}, ""},
		{"remote", map[string]string{"CATALOG_SOURCE": "remote", "CATALOG_API_URL": "http://catalog:8001/api/v1"}, ""},
		{"remote without url", map[string]string{"CATALOG_SOURCE": "remote"}, "CATALOG_API_URL"},
		{"remote relative url", map[string]string{"CATALOG_SOURCE": "remote", "CATALOG_API_URL": "/api"}, "CATALOG_API_URL"},
		{"unknown", map[string]string{"CATALOG_SOURCE": "s3"}, "CATALOG_SOURCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.env["CATALOG_SOURCE"], cfg.CatalogSource)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cr3t")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_InvalidFailureRatio(t *testing.T) {
	t.Setenv("CB_FAILURE_RATIO", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CB_FAILURE_RATIO")
}

func TestLoad_ListsAndDurations(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", "a@x.dev,b@x.dev")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CB_TIMEOUT", "5s")
	t.Setenv("JWT_ACCESS_EXPIRY", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.dev", "b@x.dev"}, cfg.AdminEmails)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.CircuitBreaker().Timeout)
	assert.Equal(t, "catalog-api", cfg.CircuitBreaker().Name)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
}

func TestConfig_Postgres(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("DB_MAX_CONN_LIFETIME_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, 5*time.Minute, pg.MaxConnLifetime)
	assert.Equal(t, "postgres://storefront:storefront@db:5432/storefront?sslmode=disable", pg.DSN())
}

func TestConfig_Tracing(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATE", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	tc := cfg.Tracing()
	assert.True(t, tc.Enabled)
	assert.Equal(t, "storefront", tc.ServiceName)
	assert.Equal(t, 0.5, tc.SampleRate)
}
