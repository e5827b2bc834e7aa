package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ragvault/internal/data/repos"
	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/domain/auth"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/apikey"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

const (
	defaultKeyRateLimit = 60
	maxKeyRateLimit     = 1000
	maxKeyExpiryDays    = 3650
	prefixAttempts      = 3
)

type CreateAPIKeyInput struct {
	Name               string   `json:"name"`
	Scopes             []string `json:"scopes,omitempty"`
	RateLimitPerMinute *int     `json:"rate_limit_per_minute,omitempty"`
	ExpiresInDays      *int     `json:"expires_in_days,omitempty"`
}

// IssuedAPIKey is returned once, at creation. The plaintext is not stored.
type IssuedAPIKey struct {
	Key       *types.APIKey `json:"api_key"`
	Plaintext string        `json:"key"`
}

type APIKeyService interface {
	Create(ctx context.Context, workspaceID uuid.UUID, in CreateAPIKeyInput) (*IssuedAPIKey, error)
	List(ctx context.Context, workspaceID uuid.UUID) ([]*types.APIKey, error)
	Revoke(ctx context.Context, workspaceID, keyID uuid.UUID) error
}

type apiKeyService struct {
	keys       repos.APIKeyRepo
	workspaces repos.WorkspaceRepo
	log        *logger.Logger
	generate   func() (apikey.Credential, error)
	now        func() time.Time
}

func NewAPIKeyService(keys repos.APIKeyRepo, workspaces repos.WorkspaceRepo, baseLog *logger.Logger) APIKeyService {
	return &apiKeyService{
		keys:       keys,
		workspaces: workspaces,
		log:        baseLog.With("service", "APIKeyService"),
		generate:   apikey.Generate,
		now:        time.Now,
	}
}

func (s *apiKeyService) Create(ctx context.Context, workspaceID uuid.UUID, in CreateAPIKeyInput) (*IssuedAPIKey, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.Invalid("name is required")
	}
	scopes, err := normalizeScopes(in.Scopes)
	if err != nil {
		return nil, err
	}
	rate := defaultKeyRateLimit
	if in.RateLimitPerMinute != nil {
		rate = *in.RateLimitPerMinute
		if rate < 1 || rate > maxKeyRateLimit {
			return nil, apierr.Invalid("rate_limit_per_minute must be between 1 and %d", maxKeyRateLimit)
		}
	}
	var expiresAt *time.Time
	if in.ExpiresInDays != nil {
		days := *in.ExpiresInDays
		if days < 1 || days > maxKeyExpiryDays {
			return nil, apierr.Invalid("expires_in_days must be between 1 and %d", maxKeyExpiryDays)
		}
		t := s.now().UTC().AddDate(0, 0, days)
		expiresAt = &t
	}

	dbc := dbctx.New(ctx)
	ws, err := s.workspaces.GetByID(dbc, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apierr.NotFound("workspace")
	}

	cred, err := s.freshCredential(dbc)
	if err != nil {
		return nil, err
	}

	key, err := s.keys.Create(dbc, &types.APIKey{
		WorkspaceID:        workspaceID,
		Name:               name,
		KeyPrefix:          cred.Prefix,
		KeyHash:            cred.Hash,
		Scopes:             auth.EncodeScopes(scopes),
		RateLimitPerMinute: rate,
		IsActive:           true,
		ExpiresAt:          expiresAt,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("api key issued", "workspace_id", workspaceID, "key_id", key.ID, "key_prefix", key.KeyPrefix)
	return &IssuedAPIKey{Key: key, Plaintext: cred.Plaintext}, nil
}

// freshCredential retries on the rare prefix collision.
func (s *apiKeyService) freshCredential(dbc dbctx.Context) (apikey.Credential, error) {
	for i := 0; i < prefixAttempts; i++ {
		cred, err := s.generate()
		if err != nil {
			return apikey.Credential{}, err
		}
		taken, err := s.keys.ExistsByPrefix(dbc, cred.Prefix)
		if err != nil {
			return apikey.Credential{}, err
		}
		if !taken {
			return cred, nil
		}
		s.log.Warn("api key prefix collision, regenerating", "attempt", i+1)
	}
	return apikey.Credential{}, fmt.Errorf("no unused key prefix after %d attempts", prefixAttempts)
}

func (s *apiKeyService) List(ctx context.Context, workspaceID uuid.UUID) ([]*types.APIKey, error) {
	dbc := dbctx.New(ctx)
	ws, err := s.workspaces.GetByID(dbc, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apierr.NotFound("workspace")
	}
	return s.keys.ListByWorkspace(dbc, workspaceID)
}

// Revoke takes effect for the very next authentication; keys are looked up
// on every request and nothing caches them.
func (s *apiKeyService) Revoke(ctx context.Context, workspaceID, keyID uuid.UUID) error {
	ok, err := s.keys.Revoke(dbctx.New(ctx), workspaceID, keyID, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("api key")
	}
	s.log.Info("api key revoked", "workspace_id", workspaceID, "key_id", keyID)
	return nil
}

func normalizeScopes(in []string) ([]string, error) {
	if len(in) == 0 {
		return append([]string(nil), auth.DefaultScopes...), nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		sc := strings.ToLower(strings.TrimSpace(raw))
		switch sc {
		case auth.ScopeSearch, auth.ScopeChat:
		default:
			return nil, apierr.Invalid("unknown scope %q", raw)
		}
		if !seen[sc] {
			seen[sc] = true
			out = append(out, sc)
		}
	}
	return out, nil
}
