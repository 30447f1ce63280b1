package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMongo    = "mongo"
	StoreBackendFile     = "file"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	NATS       NATSConfig
	JWT        JWTConfig
	Tracing    TracingConfig
	Timeout    TimeoutConfig
	Resilience ResilienceConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
	LogLevel     string // overrides the environment default when set
}

// StoreConfig selects the record store backend and snapshot caching
type StoreConfig struct {
	Backend         string
	DataDir         string // JSON collections directory for the file backend
	CacheEnabled    bool
	CacheTTLSeconds int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	Enabled        bool
	URL            string
	StreamName     string
	RetentionHours int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRate   float64
}

// TimeoutConfig holds request and dependency timeouts, in seconds
type TimeoutConfig struct {
	DefaultRequestTimeout int
	DatabaseQueryTimeout  int
	StoreFetchTimeout     int
	RouteOverrides        map[string]int
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures breaker tuning for the record store
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
}

// Default timeouts in seconds
const (
	DefaultRequestTimeout       = 30
	DefaultDatabaseQueryTimeout = 10
	DefaultStoreFetchTimeout    = 15
)

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8091"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
			LogLevel:     getEnv("LOG_LEVEL", ""),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
			DataDir:         getEnv("STORE_DATA_DIR", "./data"),
			CacheEnabled:    getEnvAsBool("SNAPSHOT_CACHE_ENABLED", false),
			CacheTTLSeconds: getEnvAsInt("SNAPSHOT_CACHE_TTL_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "transitops"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "transitops"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		NATS: NATSConfig{
			Enabled:        getEnvAsBool("NATS_ENABLED", false),
			URL:            getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			StreamName:     getEnv("NATS_STREAM", "TRANSITOPS"),
			RetentionHours: getEnvAsInt("NATS_RETENTION_HOURS", 72),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvAsFloat("OTEL_SAMPLE_RATE", 1.0),
		},
		Timeout: TimeoutConfig{
			DefaultRequestTimeout: getEnvAsInt("DEFAULT_REQUEST_TIMEOUT", DefaultRequestTimeout),
			DatabaseQueryTimeout:  getEnvAsInt("DB_QUERY_TIMEOUT", DefaultDatabaseQueryTimeout),
			StoreFetchTimeout:     getEnvAsInt("STORE_FETCH_TIMEOUT", DefaultStoreFetchTimeout),
			RouteOverrides:        map[string]int{},
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("CB_ENABLED", true),
				FailureThreshold: getEnvAsInt("CB_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("CB_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("CB_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("CB_INTERVAL_SECONDS", 60),
			},
		},
	}

	if overrides := getEnv("ROUTE_TIMEOUTS", ""); overrides != "" {
		var routeTimeouts map[string]int
		if err := json.Unmarshal([]byte(overrides), &routeTimeouts); err != nil {
			return nil, fmt.Errorf("invalid ROUTE_TIMEOUTS value: %w", err)
		}
		cfg.Timeout.RouteOverrides = routeTimeouts
	}

	switch cfg.Store.Backend {
	case StoreBackendPostgres, StoreBackendMongo, StoreBackendFile:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND value %q", cfg.Store.Backend)
	}

	if cfg.Timeout.DefaultRequestTimeout <= 0 {
		cfg.Timeout.DefaultRequestTimeout = DefaultRequestTimeout
	}
	if cfg.Timeout.StoreFetchTimeout <= 0 {
		cfg.Timeout.StoreFetchTimeout = DefaultStoreFetchTimeout
	}
	if cfg.Store.CacheTTLSeconds <= 0 {
		cfg.Store.CacheTTLSeconds = 30
	}
	if cfg.Resilience.CircuitBreaker.FailureThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.FailureThreshold = 5
	}
	if cfg.Resilience.CircuitBreaker.SuccessThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.SuccessThreshold = 1
	}
	if cfg.Resilience.CircuitBreaker.TimeoutSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.TimeoutSeconds = 30
	}
	if cfg.Resilience.CircuitBreaker.IntervalSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.IntervalSeconds = 60
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form (used by migrations)
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// CacheTTL returns the snapshot cache lifetime
func (c StoreConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RequestTimeoutFor returns the timeout for a route, honoring overrides
func (c TimeoutConfig) RequestTimeoutFor(route string) time.Duration {
	if seconds, ok := c.RouteOverrides[route]; ok && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return time.Duration(c.DefaultRequestTimeout) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
