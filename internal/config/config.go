package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Logging        LoggingConfig
	Ingestion      IngestionConfig
	Alerts         AlertsConfig
	CircuitBreaker CircuitBreakerConfig
	Tracing        TracingConfig
	RateLimit      RateLimitConfig
	Connector      ConnectorConfig
	Env            string `mapstructure:"env"`
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig
	RunMigrations bool `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"dbname"`
	SSLMode        string        `mapstructure:"sslmode"`
	PoolMax        int           `mapstructure:"pool_max"`
	PoolMin        int           `mapstructure:"pool_min"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IngestionConfig holds default_batch_size / default_validate settings.
// No component reads them: the ingest handlers start from
// ingestion.DefaultOptions (batch size 100, validation on) and apply any
// per-request batchSize / validate overrides on top of that.
type IngestionConfig struct {
	DefaultBatchSize int  `mapstructure:"default_batch_size"`
	DefaultValidate  bool `mapstructure:"default_validate"`
}

type AlertsConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// ConnectorConfig points at the reference file-backed connector's two
// newline-delimited JSON sources (spec.md §6 scopes connectors as an
// external collaborator; this is the reference implementation's wiring).
type ConnectorConfig struct {
	BulkPath   string `mapstructure:"bulk_path"`
	RecentPath string `mapstructure:"recent_path"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

// IsDevelopment reports whether error detail should be surfaced unredacted
// at the HTTP boundary (spec.md §7).
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
