package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load("test-service")
	require.NoError(t, err)

	assert.Equal(t, "test-service", cfg.Server.ServiceName)
	assert.Equal(t, "8091", cfg.Server.Port)
	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout.DefaultRequestTimeout)
	assert.Equal(t, DefaultStoreFetchTimeout, cfg.Timeout.StoreFetchTimeout)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL())
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, 72, cfg.NATS.RetentionHours)
	assert.True(t, cfg.Resilience.CircuitBreaker.Enabled)
}

func TestLoadCustomValues(t *testing.T) {
	os.Clearenv()
	t.Setenv("STORE_BACKEND", "MONGO")
	t.Setenv("SNAPSHOT_CACHE_TTL_SECONDS", "5")
	t.Setenv("DEFAULT_REQUEST_TIMEOUT", "45")
	t.Setenv("ROUTE_TIMEOUTS", `{"/api/v1/analytics/reports":60}`)
	t.Setenv("OTEL_SAMPLE_RATE", "0.25")

	cfg, err := Load("test-service")
	require.NoError(t, err)

	assert.Equal(t, StoreBackendMongo, cfg.Store.Backend)
	assert.Equal(t, 5*time.Second, cfg.Store.CacheTTL())
	assert.Equal(t, 60*time.Second, cfg.Timeout.RequestTimeoutFor("/api/v1/analytics/reports"))
	assert.Equal(t, 45*time.Second, cfg.Timeout.RequestTimeoutFor("/api/v1/maintenance/schedule"))
	assert.InDelta(t, 0.25, cfg.Tracing.SampleRate, 1e-9)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	os.Clearenv()
	t.Setenv("STORE_BACKEND", "cassandra")

	_, err := Load("test-service")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidRouteTimeouts(t *testing.T) {
	os.Clearenv()
	t.Setenv("ROUTE_TIMEOUTS", "not-json")

	_, err := Load("test-service")
	assert.Error(t, err)
}

func TestNonPositiveValuesFallBack(t *testing.T) {
	os.Clearenv()
	t.Setenv("DEFAULT_REQUEST_TIMEOUT", "0")
	t.Setenv("CB_FAILURE_THRESHOLD", "-1")

	cfg, err := Load("test-service")
	require.NoError(t, err)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout.DefaultRequestTimeout)
	assert.Equal(t, 5, cfg.Resilience.CircuitBreaker.FailureThreshold)
}

func TestDatabaseURL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "transit", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/transit?sslmode=disable", c.URL())
	assert.Contains(t, c.DSN(), "dbname=transit")
}
