package services

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	componentUp       = "connected"
	componentDown     = "unreachable"
	componentDisabled = "not_configured"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger adapts a go-redis client to Pinger.
type RedisPinger struct {
	Client goredis.UniversalClient
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

type HealthReport struct {
	Status         string    `json:"status"`
	Database       string    `json:"database"`
	GraphDatabase  string    `json:"graph_database"`
	RateLimitStore string    `json:"rate_limit_store"`
	Version        string    `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
}

// HealthService pings Postgres (required) plus Neo4j and Redis (optional, nil
// when not configured). Postgres down is unhealthy; an optional dependency
// down is degraded.
type HealthService struct {
	database Pinger
	graph    Pinger
	redis    Pinger
	version  string
	timeout  time.Duration
	now      func() time.Time
}

func NewHealthService(database, graph, redis Pinger, version string) *HealthService {
	return &HealthService{
		database: database,
		graph:    graph,
		redis:    redis,
		version:  version,
		timeout:  2 * time.Second,
		now:      time.Now,
	}
}

func (h *HealthService) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		wg                 sync.WaitGroup
		db, graph, limiter string
	)
	probe := func(p Pinger, out *string) {
		defer wg.Done()
		*out = ping(ctx, p)
	}
	wg.Add(3)
	go probe(h.database, &db)
	go probe(h.graph, &graph)
	go probe(h.redis, &limiter)
	wg.Wait()

	status := StatusHealthy
	switch {
	case db != componentUp:
		status = StatusUnhealthy
	case graph == componentDown || limiter == componentDown:
		status = StatusDegraded
	}
	return HealthReport{
		Status:         status,
		Database:       db,
		GraphDatabase:  graph,
		RateLimitStore: limiter,
		Version:        h.version,
		Timestamp:      h.now().UTC(),
	}
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return componentDisabled
	}
	if err := p.Ping(ctx); err != nil {
		return componentDown
	}
	return componentUp
}
