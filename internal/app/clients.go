package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/ragvault/internal/clients/redis"
	"github.com/yungbote/ragvault/internal/data/db"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/platform/neo4jdb"
	"github.com/yungbote/ragvault/internal/platform/openai"
)

// Clients holds every outbound connection. Neo4j, Redis and the embedder are
// optional and nil when not configured.
type Clients struct {
	Postgres *db.PostgresService
	Neo4j    *neo4jdb.Client
	Redis    *goredis.Client
	Embedder *openai.Embedder
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	pg, err := db.NewPostgresService(ctx, cfg.Postgres, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init postgres: %w", err)
	}

	graph, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		pg.Close()
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		if graph != nil {
			_ = graph.Close(ctx)
		}
		pg.Close()
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}

	clients := Clients{Postgres: pg, Neo4j: graph, Redis: rdb}
	if cfg.Embedder.APIKey != "" {
		clients.Embedder, err = openai.NewEmbedder(cfg.Embedder, log)
		if err != nil {
			clients.Close(ctx)
			return Clients{}, fmt.Errorf("init embedder: %w", err)
		}
	}
	return clients, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}
