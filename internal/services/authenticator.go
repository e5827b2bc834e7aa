package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/yungbote/ragvault/internal/data/repos"
	"github.com/yungbote/ragvault/internal/observability"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/apikey"
	"github.com/yungbote/ragvault/internal/platform/ctxutil"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

// Authenticator resolves an opaque credential into the identity of the key
// that owns it. Every failure is the same apierr.Unauthenticated.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (ctxutil.Identity, error)
}

// unknownKeyHash is compared against when no key matches the prefix, so a miss
// costs the same hashing work as a mismatch.
var unknownKeyHash = apikey.Hash("rvk_live_unknown")

type apiKeyAuthenticator struct {
	keys         repos.APIKeyRepo
	pool         *ants.Pool
	log          *logger.Logger
	metrics      *observability.Metrics
	now          func() time.Time
	touchTimeout time.Duration
}

// NewAuthenticator builds the key authenticator. pool runs last_used_at
// updates off the request path; a nil pool skips them.
func NewAuthenticator(keys repos.APIKeyRepo, pool *ants.Pool, metrics *observability.Metrics, baseLog *logger.Logger) Authenticator {
	return &apiKeyAuthenticator{
		keys:         keys,
		pool:         pool,
		log:          baseLog.With("service", "Authenticator"),
		metrics:      metrics,
		now:          time.Now,
		touchTimeout: 5 * time.Second,
	}
}

func (a *apiKeyAuthenticator) Authenticate(ctx context.Context, credential string) (ctxutil.Identity, error) {
	prefix, err := apikey.Prefix(credential)
	if err != nil {
		return ctxutil.Identity{}, a.reject("malformed", uuid.Nil)
	}

	key, err := a.keys.GetByPrefix(dbctx.New(ctx), prefix)
	if err != nil {
		a.log.Error("api key lookup failed", "error", err)
		return ctxutil.Identity{}, apierr.Upstream(err)
	}
	if key == nil {
		apikey.Verify(credential, unknownKeyHash)
		return ctxutil.Identity{}, a.reject("unknown", uuid.Nil)
	}
	if !apikey.Verify(credential, key.KeyHash) {
		return ctxutil.Identity{}, a.reject("hash_mismatch", key.ID)
	}
	if ok, reason := key.Usable(a.now()); !ok {
		return ctxutil.Identity{}, a.reject(reason, key.ID)
	}

	a.touch(key.ID)

	return ctxutil.Identity{
		WorkspaceID:        key.WorkspaceID,
		KeyID:              key.ID,
		Scopes:             key.ScopeList(),
		RateLimitPerMinute: key.RateLimitPerMinute,
	}, nil
}

func (a *apiKeyAuthenticator) reject(reason string, keyID uuid.UUID) error {
	a.metrics.IncAuthFailure(reason)
	if keyID != uuid.Nil {
		a.log.Info("api key rejected", "reason", reason, "key_id", keyID)
	} else {
		a.log.Debug("api key rejected", "reason", reason)
	}
	return apierr.Unauthenticated()
}

// touch records usage without holding up the request. A saturated pool or a
// failed write only costs a log line.
func (a *apiKeyAuthenticator) touch(keyID uuid.UUID) {
	if a.pool == nil {
		return
	}
	at := a.now().UTC()
	err := a.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.touchTimeout)
		defer cancel()
		if err := a.keys.TouchLastUsed(dbctx.New(ctx), keyID, at); err != nil {
			a.log.Warn("failed to update api key last_used_at", "key_id", keyID, "error", err)
		}
	})
	if err != nil {
		a.log.Debug("skipped api key last_used_at update", "key_id", keyID, "error", err)
	}
}
