package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type APIKeyRepo interface {
	Create(dbc dbctx.Context, key *types.APIKey) (*types.APIKey, error)
	// GetByPrefix returns the key regardless of status so the caller can
	// decide; nil, nil when no key has that prefix.
	GetByPrefix(dbc dbctx.Context, prefix string) (*types.APIKey, error)
	ExistsByPrefix(dbc dbctx.Context, prefix string) (bool, error)
	ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID) ([]*types.APIKey, error)
	TouchLastUsed(dbc dbctx.Context, keyID uuid.UUID, at time.Time) error
	// Revoke only matches a key inside workspaceID. Returns false when there
	// was nothing to revoke.
	Revoke(dbc dbctx.Context, workspaceID, keyID uuid.UUID, at time.Time) (bool, error)
}

type apiKeyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAPIKeyRepo(db *gorm.DB, baseLog *logger.Logger) APIKeyRepo {
	repoLog := baseLog.With("repo", "APIKeyRepo")
	return &apiKeyRepo{db: db, log: repoLog}
}

func (r *apiKeyRepo) Create(dbc dbctx.Context, key *types.APIKey) (*types.APIKey, error) {
	if key == nil {
		return nil, fmt.Errorf("api key is nil")
	}
	if key.WorkspaceID == uuid.Nil || key.KeyPrefix == "" || key.KeyHash == "" {
		return nil, fmt.Errorf("api key requires workspace_id, key_prefix and key_hash")
	}
	if err := dbc.DB(r.db).Create(key).Error; err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return key, nil
}

func (r *apiKeyRepo) GetByPrefix(dbc dbctx.Context, prefix string) (*types.APIKey, error) {
	if prefix == "" {
		return nil, nil
	}
	var key types.APIKey
	err := dbc.DB(r.db).Where("key_prefix = ?", prefix).Take(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return &key, nil
}

func (r *apiKeyRepo) ExistsByPrefix(dbc dbctx.Context, prefix string) (bool, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.APIKey{}).Where("key_prefix = ?", prefix).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check api key prefix: %w", err)
	}
	return n > 0, nil
}

func (r *apiKeyRepo) ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID) ([]*types.APIKey, error) {
	out := []*types.APIKey{}
	if workspaceID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return out, nil
}

func (r *apiKeyRepo) TouchLastUsed(dbc dbctx.Context, keyID uuid.UUID, at time.Time) error {
	if err := dbc.DB(r.db).Model(&types.APIKey{}).
		Where("id = ?", keyID).
		UpdateColumn("last_used_at", at).Error; err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}

func (r *apiKeyRepo) Revoke(dbc dbctx.Context, workspaceID, keyID uuid.UUID, at time.Time) (bool, error) {
	res := dbc.DB(r.db).Model(&types.APIKey{}).
		Where("id = ? AND workspace_id = ?", keyID, workspaceID).
		UpdateColumns(map[string]interface{}{
			"is_active":  false,
			"revoked_at": gorm.Expr("COALESCE(revoked_at, ?)", at),
		})
	if res.Error != nil {
		return false, fmt.Errorf("revoke api key: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
