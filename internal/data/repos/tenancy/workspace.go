package tenancy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type WorkspaceRepo interface {
	Create(dbc dbctx.Context, ws *types.Workspace) (*types.Workspace, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Workspace, error)
	ListByOrganization(dbc dbctx.Context, orgID uuid.UUID) ([]*types.Workspace, error)
	CountByOrganization(dbc dbctx.Context, orgID uuid.UUID) (int64, error)
	ReserveMonthlyRequest(dbc dbctx.Context, id uuid.UUID) (bool, error)
	ReleaseMonthlyRequest(dbc dbctx.Context, id uuid.UUID) error
	AdjustDocumentCount(dbc dbctx.Context, id uuid.UUID, delta int) error
}

type workspaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkspaceRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceRepo {
	repoLog := baseLog.With("repo", "WorkspaceRepo")
	return &workspaceRepo{db: db, log: repoLog}
}

func (r *workspaceRepo) Create(dbc dbctx.Context, ws *types.Workspace) (*types.Workspace, error) {
	if ws == nil {
		return nil, fmt.Errorf("workspace is nil")
	}
	if ws.OrganizationID == uuid.Nil {
		return nil, fmt.Errorf("workspace organization_id is required")
	}
	if err := dbc.DB(r.db).Create(ws).Error; err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

// GetByID returns nil, nil when the workspace does not exist.
func (r *workspaceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Workspace, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var ws types.Workspace
	err := dbc.DB(r.db).Where("id = ?", id).Take(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return &ws, nil
}

func (r *workspaceRepo) ListByOrganization(dbc dbctx.Context, orgID uuid.UUID) ([]*types.Workspace, error) {
	var out []*types.Workspace
	if orgID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("organization_id = ?", orgID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return out, nil
}

func (r *workspaceRepo) CountByOrganization(dbc dbctx.Context, orgID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.Workspace{}).
		Where("organization_id = ?", orgID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count workspaces: %w", err)
	}
	return n, nil
}

// ReserveMonthlyRequest takes one request from the workspace's monthly
// allowance in a single statement, so concurrent callers cannot overshoot
// max_monthly_requests. A counter from an earlier calendar month restarts at
// zero. It reports false when the allowance is used up or the workspace is
// gone.
func (r *workspaceRepo) ReserveMonthlyRequest(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Exec(`
		UPDATE workspace
		SET monthly_requests = CASE
				WHEN date_trunc('month', last_request_reset_at) < date_trunc('month', now())
				THEN 1
				ELSE monthly_requests + 1
			END,
			last_request_reset_at = CASE
				WHEN date_trunc('month', last_request_reset_at) < date_trunc('month', now())
				THEN now()
				ELSE last_request_reset_at
			END,
			updated_at = now()
		WHERE id = ? AND deleted_at IS NULL
		  AND (
			max_monthly_requests <= 0
			OR date_trunc('month', last_request_reset_at) < date_trunc('month', now())
			OR monthly_requests < max_monthly_requests
		  )
	`, id)
	if res.Error != nil {
		return false, fmt.Errorf("reserve workspace request: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseMonthlyRequest hands back a reservation whose search did not
// complete.
func (r *workspaceRepo) ReleaseMonthlyRequest(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Exec(`
		UPDATE workspace
		SET monthly_requests = GREATEST(monthly_requests - 1, 0),
			updated_at = now()
		WHERE id = ?
	`, id)
	if res.Error != nil {
		return fmt.Errorf("release workspace request: %w", res.Error)
	}
	return nil
}

func (r *workspaceRepo) AdjustDocumentCount(dbc dbctx.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	res := dbc.DB(r.db).Exec(`
		UPDATE workspace
		SET document_count = GREATEST(document_count + ?, 0),
			updated_at = now()
		WHERE id = ?
	`, delta, id)
	if res.Error != nil {
		return fmt.Errorf("adjust workspace document count: %w", res.Error)
	}
	return nil
}
