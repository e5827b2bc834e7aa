package app

import (
	"time"

	"github.com/yungbote/ragvault/internal/clients/redis"
	"github.com/yungbote/ragvault/internal/data/db"
	"github.com/yungbote/ragvault/internal/observability"
	"github.com/yungbote/ragvault/internal/platform/envutil"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/platform/neo4jdb"
	"github.com/yungbote/ragvault/internal/platform/openai"
	"github.com/yungbote/ragvault/internal/retrieval"
	"github.com/yungbote/ragvault/internal/services"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type Config struct {
	Environment string

	Postgres    db.PostgresConfig
	AutoMigrate bool

	Neo4j neo4jdb.Config

	Redis              redis.Config
	RateLimitWindow    time.Duration
	RateLimitKeyPrefix string

	Embedder openai.EmbedderConfig
	Engine   retrieval.EngineConfig
	Gateway  services.GatewayConfig

	AdminJWTSecret string
	AdminTokenTTL  time.Duration

	CORSOrigins     []string
	MetricsEnabled  bool
	Otel            observability.OtelConfig
	TouchPoolSize   int
	ShutdownTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	env := envutil.String("APP_ENV", "development")
	weight := envutil.Float("SEARCH_DEFAULT_WEIGHT", 0.3)
	cfg := Config{
		Environment: env,
		Postgres: db.PostgresConfig{
			DSN:             envutil.String("POSTGRES_DSN", ""),
			Host:            envutil.String("POSTGRES_HOST", "localhost"),
			Port:            envutil.String("POSTGRES_PORT", "5432"),
			User:            envutil.String("POSTGRES_USER", "postgres"),
			Password:        envutil.String("POSTGRES_PASSWORD", ""),
			Name:            envutil.String("POSTGRES_NAME", "ragvault"),
			SSLMode:         envutil.String("POSTGRES_SSLMODE", "disable"),
			MaxConns:        int32(envutil.Int("POSTGRES_MAX_CONNS", 20)),
			MinConns:        int32(envutil.Int("POSTGRES_MIN_CONNS", 2)),
			MaxConnIdleTime: envutil.Seconds("POSTGRES_MAX_CONN_IDLE_SECONDS", 5*time.Minute),
			ConnectTimeout:  envutil.Seconds("POSTGRES_CONNECT_TIMEOUT_SECONDS", 10*time.Second),
		},
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),
		Neo4j: neo4jdb.Config{
			URI:            envutil.String("NEO4J_URI", ""),
			User:           envutil.String("NEO4J_USER", "neo4j"),
			Password:       envutil.String("NEO4J_PASSWORD", ""),
			Database:       envutil.String("NEO4J_DATABASE", ""),
			Timeout:        envutil.Seconds("NEO4J_TIMEOUT_SECONDS", 10*time.Second),
			MaxPoolSize:    envutil.Int("NEO4J_MAX_POOL_SIZE", 50),
			AcquireTimeout: envutil.Seconds("NEO4J_ACQUIRE_TIMEOUT_SECONDS", 30*time.Second),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			PoolSize: envutil.Int("REDIS_POOL_SIZE", 20),
		},
		RateLimitWindow:    envutil.Seconds("RATE_LIMIT_WINDOW_SECONDS", time.Minute),
		RateLimitKeyPrefix: envutil.String("RATE_LIMIT_KEY_PREFIX", "ragvault:ratelimit:"),
		Embedder: openai.EmbedderConfig{
			APIKey:     envutil.String("OPENAI_API_KEY", ""),
			BaseURL:    envutil.String("OPENAI_BASE_URL", ""),
			Model:      envutil.String("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: envutil.Int("EMBEDDING_DIMENSIONS", 1536),
			Timeout:    envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 30*time.Second),
		},
		Engine: retrieval.EngineConfig{
			CandidateMultiplier: envutil.Int("SEARCH_CANDIDATE_MULTIPLIER", 2),
			MaxCandidates:       envutil.Int("SEARCH_MAX_CANDIDATES", 100),
		},
		Gateway: services.GatewayConfig{
			DefaultLimit:   envutil.Int("SEARCH_DEFAULT_LIMIT", 10),
			MaxLimit:       envutil.Int("SEARCH_MAX_LIMIT", 50),
			DefaultWeight:  &weight,
			MaxQueryLength: envutil.Int("SEARCH_MAX_QUERY_LENGTH", 1000),
			SearchTimeout:  envutil.Seconds("SEARCH_TIMEOUT_SECONDS", 10*time.Second),
		},
		AdminJWTSecret:  envutil.String("ADMIN_JWT_SECRET", ""),
		AdminTokenTTL:   envutil.Seconds("ADMIN_TOKEN_TTL_SECONDS", 12*time.Hour),
		CORSOrigins:     envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", true),
		TouchPoolSize:   envutil.Int("API_KEY_TOUCH_POOL_SIZE", 16),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "ragvault"),
			Environment: env,
			Version:     Version,
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	if cfg.AdminJWTSecret == "" {
		log.Warn("ADMIN_JWT_SECRET not set; management routes are disabled")
	}
	if cfg.Embedder.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set; vector and hybrid searches will fail")
	}
	return cfg
}
