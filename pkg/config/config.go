package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/estategraph/estategraph/pkg/types"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Similarity configuration
	Similarity SimilarityConfig `mapstructure:"similarity"`

	// PriceBuckets overrides the built-in price range boundaries.
	PriceBuckets []PriceBucketConfig `mapstructure:"price_buckets"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// PipelineConfig holds the staged-build tunables
type PipelineConfig struct {
	BatchSize      int `mapstructure:"batch_size"`
	WriteRetries   int `mapstructure:"write_retries"`
	WriteTimeout   int `mapstructure:"write_timeout"` // in seconds
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// SimilarityConfig holds the embedding-similarity tunables
type SimilarityConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	TopK      int     `mapstructure:"top_k"`
}

// PriceBucketConfig is one configured price range boundary
type PriceBucketConfig struct {
	Label string  `mapstructure:"label"`
	Lower float64 `mapstructure:"lower"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Buckets converts the configured price ranges to the pipeline's form,
// falling back to the built-in boundaries when none are configured.
func (c *Config) Buckets() []types.PriceBucket {
	if len(c.PriceBuckets) == 0 {
		return types.DefaultPriceBuckets()
	}
	out := make([]types.PriceBucket, 0, len(c.PriceBuckets))
	for _, b := range c.PriceBuckets {
		out = append(out, types.PriceBucket{Label: b.Label, Lower: b.Lower})
	}
	return out
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Database defaults
	viper.SetDefault("database.driver", "neo4j")
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "")

	// Pipeline defaults
	viper.SetDefault("pipeline.batch_size", 500)
	viper.SetDefault("pipeline.write_retries", 2)
	viper.SetDefault("pipeline.write_timeout", 30)
	viper.SetDefault("pipeline.max_concurrency", 8)

	// Similarity defaults
	viper.SetDefault("similarity.threshold", 0.5)
	viper.SetDefault("similarity.top_k", 10)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.estategraph/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	// Generic database settings
	if dbDriver := os.Getenv("DB_DRIVER"); dbDriver != "" {
		config.Database.Driver = dbDriver
	}
	if dbURI := os.Getenv("DB_URI"); dbURI != "" {
		config.Database.URI = dbURI
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
