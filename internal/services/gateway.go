package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ragvault/internal/data/repos"
	"github.com/yungbote/ragvault/internal/domain/auth"
	"github.com/yungbote/ragvault/internal/domain/tenancy"
	"github.com/yungbote/ragvault/internal/observability"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/ctxutil"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/ratelimit"
	"github.com/yungbote/ragvault/internal/retrieval"
)

var gatewayTracer = otel.Tracer("github.com/yungbote/ragvault/internal/services")

// SearchRequest is the wire body of a search. Nil Limit and Weight take the
// configured defaults.
type SearchRequest struct {
	Query      string   `json:"query"`
	SearchType string   `json:"search_type"`
	Limit      *int     `json:"limit,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
}

type SearchResponse struct {
	Results      []retrieval.Result `json:"results"`
	TotalResults int                `json:"total_results"`
	SearchType   string             `json:"search_type"`
	QueryTimeMS  float64            `json:"query_time_ms"`
}

type GatewayConfig struct {
	DefaultLimit int
	MaxLimit     int
	// DefaultWeight is the lexical share when a request omits one. Nil means
	// 0.3; an explicit 0 ranks by vector similarity alone.
	DefaultWeight  *float64
	MaxQueryLength int
	SearchTimeout  time.Duration
}

const defaultWeight = 0.3

func (c GatewayConfig) withDefaults() GatewayConfig {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 50
	}
	if w := c.DefaultWeight; w == nil || math.IsNaN(*w) || *w < 0 || *w > 1 {
		def := defaultWeight
		c.DefaultWeight = &def
	}
	if c.MaxQueryLength <= 0 {
		c.MaxQueryLength = 1000
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 10 * time.Second
	}
	return c
}

// Searcher is the retrieval engine as seen by the gateway.
type Searcher interface {
	Search(ctx context.Context, q retrieval.Query) ([]retrieval.Result, error)
}

// Gateway is the only entry point to search. It resolves the caller's
// workspace from the credential, so no search ever runs unscoped.
type Gateway struct {
	auth       Authenticator
	limiter    ratelimit.Limiter
	engine     Searcher
	workspaces repos.WorkspaceRepo
	cfg        GatewayConfig
	metrics    *observability.Metrics
	log        *logger.Logger
	now        func() time.Time
}

func NewGateway(
	authn Authenticator,
	limiter ratelimit.Limiter,
	engine Searcher,
	workspaces repos.WorkspaceRepo,
	cfg GatewayConfig,
	metrics *observability.Metrics,
	baseLog *logger.Logger,
) *Gateway {
	return &Gateway{
		auth:       authn,
		limiter:    limiter,
		engine:     engine,
		workspaces: workspaces,
		cfg:        cfg.withDefaults(),
		metrics:    metrics,
		log:        baseLog.With("service", "Gateway"),
		now:        time.Now,
	}
}

func (g *Gateway) DefaultWeight() float64 { return *g.cfg.DefaultWeight }

// Search authenticates, admits, searches and fuses. Auth and rate-limit
// failures leave storage untouched. The monthly allowance is reserved before
// the searches and handed back if they fail.
func (g *Gateway) Search(ctx context.Context, credential string, req SearchRequest) (resp *SearchResponse, err error) {
	start := g.now()
	searchType := "invalid"
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = apierr.Classify(err).Code
		}
		n := 0
		if resp != nil {
			n = resp.TotalResults
		}
		g.metrics.ObserveSearch(searchType, outcome, n, g.now().Sub(start))
	}()

	ctx, span := gatewayTracer.Start(ctx, "gateway.Search")
	defer span.End()

	if strings.TrimSpace(credential) == "" {
		g.metrics.IncAuthFailure("missing")
		return nil, apierr.Unauthenticated()
	}

	q, err := g.validate(req)
	if err != nil {
		return nil, err
	}
	searchType = q.Type.String()
	span.SetAttributes(attribute.String("search.type", searchType))

	id, err := g.auth.Authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !id.HasScope(auth.ScopeSearch) {
		g.metrics.IncAuthFailure("scope")
		g.log.Info("api key lacks search scope", "key_id", id.KeyID)
		return nil, apierr.Unauthenticated()
	}
	span.SetAttributes(attribute.String("workspace.id", id.WorkspaceID.String()))
	ctx = ctxutil.WithIdentity(ctx, id)

	decision, err := g.limiter.Admit(ctx, id.KeyID.String(), id.RateLimitPerMinute)
	if err != nil {
		g.log.Error("rate limiter unavailable", "key_id", id.KeyID, "error", err)
		return nil, apierr.Upstream(err)
	}
	if !decision.Allowed {
		g.metrics.IncRateLimited("key")
		return nil, apierr.RateLimited(decision.RetryAfter)
	}

	ws, err := g.workspaces.GetByID(dbctx.New(ctx), id.WorkspaceID)
	if err != nil {
		return nil, apierr.Upstream(err)
	}
	if ws == nil {
		g.log.Warn("api key points at a missing workspace", "key_id", id.KeyID, "workspace_id", id.WorkspaceID)
		return nil, apierr.Unauthenticated()
	}
	ctxutil.SetWorkspace(ctx, ws.ID)

	now := g.now()
	if ws.MonthlyBudgetExhausted(now) {
		g.metrics.IncRateLimited("monthly_quota")
		return nil, apierr.QuotaExceeded(tenancy.NextMonthStart(now).Sub(now))
	}
	reserved, err := g.workspaces.ReserveMonthlyRequest(dbctx.New(ctx), ws.ID)
	if err != nil {
		return nil, apierr.Upstream(err)
	}
	if !reserved {
		g.metrics.IncRateLimited("monthly_quota")
		return nil, apierr.QuotaExceeded(tenancy.NextMonthStart(now).Sub(now))
	}

	q.WorkspaceID = id.WorkspaceID
	searchCtx, cancel := context.WithTimeout(ctx, g.cfg.SearchTimeout)
	defer cancel()

	results, err := g.engine.Search(searchCtx, q)
	if err != nil {
		// Only completed searches count against the allowance.
		if relErr := g.workspaces.ReleaseMonthlyRequest(dbctx.New(context.WithoutCancel(ctx)), ws.ID); relErr != nil {
			g.log.Warn("failed to release workspace request", "workspace_id", ws.ID, "error", relErr)
		}
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Upstream(err)
	}

	if results == nil {
		results = []retrieval.Result{}
	}
	g.log.Debug("search served",
		"workspace_id", id.WorkspaceID,
		"key_id", id.KeyID,
		"search_type", searchType,
		"results", len(results),
	)
	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		SearchType:   searchType,
		QueryTimeMS:  float64(g.now().Sub(start).Microseconds()) / 1000,
	}, nil
}

// validate is pure; it never touches storage.
func (g *Gateway) validate(req SearchRequest) (retrieval.Query, error) {
	text := strings.TrimSpace(req.Query)
	if text == "" {
		return retrieval.Query{}, apierr.Invalid("query is required")
	}
	if utf8.RuneCountInString(text) > g.cfg.MaxQueryLength {
		return retrieval.Query{}, apierr.Invalid("query must be at most %d characters", g.cfg.MaxQueryLength)
	}

	st, err := retrieval.ParseSearchType(req.SearchType)
	if err != nil {
		return retrieval.Query{}, err
	}

	limit := g.cfg.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 1 || limit > g.cfg.MaxLimit {
		return retrieval.Query{}, apierr.Invalid("limit must be between 1 and %d", g.cfg.MaxLimit)
	}

	weight := *g.cfg.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return retrieval.Query{}, apierr.Invalid("weight must be between 0 and 1")
	}

	return retrieval.Query{Text: text, Type: st, Limit: limit, Weight: weight}, nil
}
