package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estategraph/estategraph/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("NEO4J_URI", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_URI", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "neo4j", cfg.Database.Driver)
	assert.Equal(t, "bolt://localhost:7687", cfg.Database.URI)
	assert.Equal(t, 500, cfg.Pipeline.BatchSize)
	assert.Equal(t, 0.5, cfg.Similarity.Threshold)
	assert.Equal(t, 10, cfg.Similarity.TopK)
	assert.True(t, cfg.CircuitBreaker.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("NEO4J_URI", "bolt://graph.internal:7687")
	t.Setenv("NEO4J_USER", "svc")
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("TELEMETRY_PARQUET_PATH", "/tmp/runs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://graph.internal:7687", cfg.Database.URI)
	assert.Equal(t, "svc", cfg.Database.Username)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "/tmp/runs", cfg.Telemetry.ParquetPath)
}

func TestBucketsFallback(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, types.DefaultPriceBuckets(), cfg.Buckets())

	cfg.PriceBuckets = []PriceBucketConfig{
		{Label: "Affordable", Lower: 0},
		{Label: "Premium", Lower: 2_000_000},
	}
	buckets := cfg.Buckets()
	require.Len(t, buckets, 2)
	assert.Equal(t, "Premium", buckets[1].Label)
	assert.Equal(t, 2_000_000.0, buckets[1].Lower)
}
