package config

// Config represents the complete configuration for the twarcsql loader.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Runtime  RuntimeConfig  `koanf:"runtime"  validate:"required"`
	Ingest   IngestConfig   `koanf:"ingest"   validate:"required"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// DatabaseConfig contains database connection configuration. The DB_*
// environment variables follow the twarc2sql .env convention, so existing
// env files keep working.
type DatabaseConfig struct {
	ConnString  string          `koanf:"conn_string"  env:"DB_CONN_STRING"`
	Host        string          `koanf:"host"         env:"DB_HOST"`
	Port        string          `koanf:"port"         env:"DB_PORT"`
	User        string          `koanf:"user"         env:"DB_USER"`
	Password    SensitiveString `koanf:"password"     env:"DB_PASSWORD"     sensitive:"true"`
	DBName      string          `koanf:"name"         env:"DB_NAME"`
	SSLMode     string          `koanf:"ssl_mode"     env:"DB_SSL_MODE"`
	AdminDBName string          `koanf:"admin_name"   env:"DB_ADMIN_NAME"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"RUNTIME_LOG_LEVEL"`
}

// IngestConfig contains loader behavior configuration.
type IngestConfig struct {
	Workers      int    `koanf:"workers"       validate:"min=1"         env:"INGEST_WORKERS"`
	BatchSize    int    `koanf:"batch_size"    validate:"min=1"         env:"INGEST_BATCH_SIZE"`
	Endpoint     string `koanf:"endpoint"      validate:"oneof=search"  env:"INGEST_ENDPOINT"`
	FlushRetries int    `koanf:"flush_retries" validate:"min=0,max=10"  env:"INGEST_FLUSH_RETRIES"`
}

// MetricsConfig controls the optional Prometheus listener during loads.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled" env:"METRICS_ENABLED"`
	Addr    string `koanf:"addr"    env:"METRICS_ADDR"`
}

// Default returns the built-in configuration values.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        "5432",
			User:        "postgres",
			DBName:      "twarcsql",
			SSLMode:     "disable",
			AdminDBName: "postgres",
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Ingest: IngestConfig{
			Workers:      4,
			BatchSize:    1000,
			Endpoint:     "search",
			FlushRetries: 3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}
