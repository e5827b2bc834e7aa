package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/ragvault/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"REDIS_ADDR", "NEO4J_URI", "SEARCH_DEFAULT_WEIGHT", "RATE_LIMIT_WINDOW_SECONDS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())

	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 10, cfg.Gateway.DefaultLimit)
	assert.Equal(t, 50, cfg.Gateway.MaxLimit)
	require.NotNil(t, cfg.Gateway.DefaultWeight)
	assert.InDelta(t, 0.3, *cfg.Gateway.DefaultWeight, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Gateway.SearchTimeout)
	assert.Equal(t, 1536, cfg.Embedder.Dimensions)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Neo4j.URI)
	assert.Nil(t, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SEARCH_DEFAULT_WEIGHT", "0.6")
	t.Setenv("SEARCH_TIMEOUT_SECONDS", "3")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")
	t.Setenv("POSTGRES_MAX_CONNS", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc")

	cfg := LoadConfig(logger.Nop())

	require.NotNil(t, cfg.Gateway.DefaultWeight)
	assert.InDelta(t, 0.6, *cfg.Gateway.DefaultWeight, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Gateway.SearchTimeout)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, int32(7), cfg.Postgres.MaxConns)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "abc", cfg.Otel.Headers["x-api-key"])
}
