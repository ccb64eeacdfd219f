package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	setDefaults()

	if configFile != "" {
		viper.SetConfigType("yaml")
		viper.SetConfigFile(configFile)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if configFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", "10s")
	viper.SetDefault("server.write_timeout_seconds", "10s")

	viper.SetDefault("database.postgres.sslmode", "disable")
	viper.SetDefault("database.postgres.pool_max", 20)
	viper.SetDefault("database.postgres.pool_min", 2)
	viper.SetDefault("database.postgres.idle_timeout", "5m")
	viper.SetDefault("database.postgres.connect_timeout", "10s")
	viper.SetDefault("database.run_migrations", true)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("ingestion.default_batch_size", 100)
	viper.SetDefault("ingestion.default_validate", true)

	viper.SetDefault("alerts.cache_ttl_seconds", 300)

	viper.SetDefault("connector.bulk_path", "./data/bulk.jsonl")
	viper.SetDefault("connector.recent_path", "./data/recent.jsonl")

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.rps", 20.0)
	viper.SetDefault("rate_limit.burst", 40)
	viper.SetDefault("rate_limit.cleanup_interval", 300)
	viper.SetDefault("rate_limit.max_age", 600)

	viper.SetDefault("env", "production")
}

// bindEnvVariables wires the environment variables named in spec.md §6
// directly, since their shape (PORT, DB_HOST, ...) does not follow the
// viper section_key convention used by the rest of the config tree.
func bindEnvVariables() {
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("database.postgres.host", "DB_HOST")
	viper.BindEnv("database.postgres.port", "DB_PORT")
	viper.BindEnv("database.postgres.dbname", "DB_NAME")
	viper.BindEnv("database.postgres.user", "DB_USER")
	viper.BindEnv("database.postgres.password", "DB_PASSWORD")
	viper.BindEnv("database.postgres.pool_max", "DB_POOL_MAX")
	viper.BindEnv("database.postgres.pool_min", "DB_POOL_MIN")
	viper.BindEnv("database.postgres.idle_timeout", "DB_IDLE_TIMEOUT")
	viper.BindEnv("database.postgres.connect_timeout", "DB_CONNECT_TIMEOUT")
	viper.BindEnv("env", "APP_ENV")
	viper.BindEnv("connector.bulk_path", "CONNECTOR_BULK_PATH")
	viper.BindEnv("connector.recent_path", "CONNECTOR_RECENT_PATH")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) {
	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}
}
