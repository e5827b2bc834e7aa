package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/ctxutil"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/yungbote/ragvault/internal/retrieval")

var errNoWorkspace = errors.New("retrieval: workspace id is required")

// Embedder turns query text into a vector of the stored embedding width.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Query struct {
	WorkspaceID uuid.UUID
	Text        string
	Type        SearchType
	Limit       int
	Weight      float64
}

type EngineConfig struct {
	// Hybrid search pulls Limit*CandidateMultiplier rows from each side,
	// capped at MaxCandidates, before fusing.
	CandidateMultiplier int
	MaxCandidates       int
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 2
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 100
	}
	return c
}

// Engine holds no per-request state and is safe for concurrent use.
type Engine struct {
	chunks   ChunkSearcher
	embedder Embedder
	cfg      EngineConfig
	log      *logger.Logger
}

func NewEngine(chunks ChunkSearcher, embedder Embedder, cfg EngineConfig, baseLog *logger.Logger) *Engine {
	return &Engine{
		chunks:   chunks,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		log:      baseLog.With("service", "RetrievalEngine"),
	}
}

// Search runs the searches q.Type needs against q.WorkspaceID only. The vector
// and lexical branches run concurrently; if either fails the other is
// cancelled and the whole search fails with an upstream error. Partial
// results are never returned.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.WorkspaceID == uuid.Nil {
		return nil, errNoWorkspace
	}
	if q.Limit <= 0 {
		return []Result{}, nil
	}

	ctx, span := tracer.Start(ctx, "retrieval.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.type", q.Type.String()),
		attribute.Int("search.limit", q.Limit),
	)

	candidates := q.Limit
	if q.Type == SearchHybrid {
		candidates = min(q.Limit*e.cfg.CandidateMultiplier, e.cfg.MaxCandidates)
		candidates = max(candidates, q.Limit)
	}

	var vectorHits, lexicalHits []Hit
	g, gctx := errgroup.WithContext(ctx)

	if q.Type.needsVector() {
		g.Go(func() error {
			hits, err := e.vectorBranch(gctx, q, candidates)
			if err != nil {
				return err
			}
			vectorHits = hits
			return nil
		})
	}
	if q.Type.needsLexical() {
		g.Go(func() error {
			hits, err := e.lexicalBranch(gctx, q, candidates)
			if err != nil {
				return err
			}
			lexicalHits = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		fields := []interface{}{"workspace_id", q.WorkspaceID, "search_type", q.Type.String(), "error", err}
		if id, ok := ctxutil.GetIdentity(ctx); ok {
			fields = append(fields, "key_id", id.KeyID)
		}
		e.log.Warn("search failed", fields...)
		return nil, apierr.Upstream(err)
	}

	var out []Result
	switch q.Type {
	case SearchVector:
		out = singleSide(vectorHits, true, q.Limit)
	case SearchLexical:
		out = singleSide(lexicalHits, false, q.Limit)
	case SearchHybrid:
		out = Fuse(vectorHits, lexicalHits, q.Weight, q.Limit)
	default:
		panic(fmt.Sprintf("retrieval: unhandled search type %d", q.Type))
	}
	span.SetAttributes(attribute.Int("search.results", len(out)))
	return out, nil
}

func (e *Engine) vectorBranch(ctx context.Context, q Query, limit int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "retrieval.vector")
	defer span.End()

	if e.embedder == nil {
		return nil, errors.New("vector search: no embedder configured")
	}
	emb, err := e.embedder.Embed(ctx, q.Text)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(emb) == 0 {
		return nil, errors.New("embed query: empty embedding")
	}
	hits, err := e.chunks.VectorSearch(dbctx.New(ctx), VectorQuery{
		WorkspaceID: q.WorkspaceID,
		Embedding:   emb,
		Limit:       limit,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

func (e *Engine) lexicalBranch(ctx context.Context, q Query, limit int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "retrieval.lexical")
	defer span.End()

	hits, err := e.chunks.LexicalSearch(dbctx.New(ctx), LexicalQuery{
		WorkspaceID: q.WorkspaceID,
		Query:       q.Text,
		Limit:       limit,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return hits, nil
}
