package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/transit-ops/pkg/config"
)

const applicationName = "transitops"

// PoolConfig builds the pgx pool settings for the record store. Every
// connection runs in UTC with statement_timeout set from
// queryTimeoutSeconds, so a runaway snapshot query is cut off server side.
func PoolConfig(cfg *config.DatabaseConfig, queryTimeoutSeconds int) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	if queryTimeoutSeconds <= 0 {
		queryTimeoutSeconds = config.DefaultDatabaseQueryTimeout
	}
	params := poolConfig.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	params["timezone"] = "UTC"
	params["statement_timeout"] = strconv.Itoa(queryTimeoutSeconds * 1000)

	return poolConfig, nil
}

// NewPostgresPool opens and pings a pool built by PoolConfig.
func NewPostgresPool(cfg *config.DatabaseConfig, queryTimeoutSeconds int) (*pgxpool.Pool, error) {
	poolConfig, err := PoolConfig(cfg, queryTimeoutSeconds)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping %s at %s:%s: %w", cfg.DBName, cfg.Host, cfg.Port, err)
	}
	return pool, nil
}

// Close closes the database connection pool
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
