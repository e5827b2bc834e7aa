package app

import (
	"fmt"

	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"

	"github.com/yungbote/ragvault/internal/data/graph"
	"github.com/yungbote/ragvault/internal/domain/documents"
	"github.com/yungbote/ragvault/internal/observability"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/ratelimit"
	"github.com/yungbote/ragvault/internal/retrieval"
	"github.com/yungbote/ragvault/internal/services"
)

type Services struct {
	Authenticator services.Authenticator
	Limiter       ratelimit.Limiter
	Engine        *retrieval.Engine
	Gateway       *services.Gateway
	Tenancy       services.TenancyService
	APIKeys       services.APIKeyService
	Documents     services.DocumentService
	Health        *services.HealthService
	// AdminTokens is nil when no admin secret is configured.
	AdminTokens *services.AdminTokens
	Graph       *graph.DocumentGraph

	touchPool *ants.Pool
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	touchPool, err := ants.NewPool(cfg.TouchPoolSize, ants.WithNonblocking(true))
	if err != nil {
		return Services{}, fmt.Errorf("init touch pool: %w", err)
	}

	var limiter ratelimit.Limiter
	if clients.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(clients.Redis, cfg.RateLimitWindow, cfg.RateLimitKeyPrefix)
		log.Info("rate limiter backed by redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitWindow)
		log.Info("rate limiter in process; limits are per replica")
	}

	var embedder retrieval.Embedder
	if clients.Embedder != nil {
		if d := clients.Embedder.Dimensions(); d != documents.EmbeddingDimensions {
			touchPool.Release()
			return Services{}, fmt.Errorf("embedding dimensions %d do not match stored width %d", d, documents.EmbeddingDimensions)
		}
		embedder = clients.Embedder
	}
	engine := retrieval.NewEngine(repos.Chunk, embedder, cfg.Engine, log)

	authn := services.NewAuthenticator(repos.APIKey, touchPool, metrics, log)
	gateway := services.NewGateway(authn, limiter, engine, repos.Workspace, cfg.Gateway, metrics, log)

	docGraph := graph.NewDocumentGraph(clients.Neo4j, log)
	tx := dbctx.GormTransactor{DB: db}

	var (
		workspaceGraph services.WorkspaceGraph
		documentGraph  services.DocumentGraph
		graphPinger    services.Pinger
		redisPinger    services.Pinger
	)
	if docGraph.Enabled() {
		workspaceGraph, documentGraph, graphPinger = docGraph, docGraph, docGraph
	}
	if clients.Redis != nil {
		redisPinger = services.RedisPinger{Client: clients.Redis}
	}

	var adminTokens *services.AdminTokens
	if cfg.AdminJWTSecret != "" {
		adminTokens, err = services.NewAdminTokens(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
		if err != nil {
			touchPool.Release()
			return Services{}, fmt.Errorf("init admin tokens: %w", err)
		}
	}

	return Services{
		Authenticator: authn,
		Limiter:       limiter,
		Engine:        engine,
		Gateway:       gateway,
		Tenancy:       services.NewTenancyService(tx, repos.Organization, repos.Workspace, workspaceGraph, log),
		APIKeys:       services.NewAPIKeyService(repos.APIKey, repos.Workspace, log),
		Documents:     services.NewDocumentService(tx, repos.Document, repos.Workspace, documentGraph, log),
		Health:        services.NewHealthService(clients.Postgres, graphPinger, redisPinger, Version),
		AdminTokens:   adminTokens,
		Graph:         docGraph,
		touchPool:     touchPool,
	}, nil
}

func (s *Services) Close() {
	if s != nil && s.touchPool != nil {
		s.touchPool.Release()
	}
}
