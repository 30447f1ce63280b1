package database

import (
	"strconv"
	"testing"
	"time"

	"github.com/richxcame/transit-ops/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "transit",
		Password: "secret",
		DBName:   "transitops",
		SSLMode:  "disable",
		MaxConns: 12,
		MinConns: 2,
	}
}

func TestPoolConfig(t *testing.T) {
	pc, err := PoolConfig(testDatabaseConfig(), 15)
	require.NoError(t, err)

	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, "transitops", pc.ConnConfig.Database)
	assert.Equal(t, "15000", pc.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Equal(t, "UTC", pc.ConnConfig.RuntimeParams["timezone"])
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_DefaultTimeout(t *testing.T) {
	pc, err := PoolConfig(testDatabaseConfig(), 0)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(config.DefaultDatabaseQueryTimeout*1000), pc.ConnConfig.RuntimeParams["statement_timeout"])
}
