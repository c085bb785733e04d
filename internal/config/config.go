package config

import (
	"fmt"

	pkgconfig "github.com/inkshelf/inkshelf/pkg/config"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"inkshelf"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"inkshelf_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"reviews_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Connection pool tuning
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Recent-reviews feed
	FeedMaxSize int `env:"FEED_MAX_SIZE" envDefault:"50"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// pprof endpoints are only reachable from these CIDRs. Empty disables them.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review service config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.FeedMaxSize < 1 {
		return nil, fmt.Errorf("invalid feed max size: %d", cfg.FeedMaxSize)
	}
	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("invalid tracing sample rate: %f", cfg.TracingSampleRate)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
