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

type OrganizationRepo interface {
	Create(dbc dbctx.Context, org *types.Organization) (*types.Organization, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Organization, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Organization, int64, error)
}

type organizationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	repoLog := baseLog.With("repo", "OrganizationRepo")
	return &organizationRepo{db: db, log: repoLog}
}

func (r *organizationRepo) Create(dbc dbctx.Context, org *types.Organization) (*types.Organization, error) {
	if org == nil {
		return nil, fmt.Errorf("organization is nil")
	}
	if err := dbc.DB(r.db).Create(org).Error; err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}

// GetByID returns nil, nil when the organization does not exist.
func (r *organizationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var org types.Organization
	err := dbc.DB(r.db).Where("id = ?", id).Take(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

func (r *organizationRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Organization, error) {
	if slug == "" {
		return nil, nil
	}
	var org types.Organization
	err := dbc.DB(r.db).Where("slug = ?", slug).Take(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get organization by slug: %w", err)
	}
	return &org, nil
}

func (r *organizationRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Organization, int64, error) {
	transaction := dbc.DB(r.db)

	var total int64
	if err := transaction.Model(&types.Organization{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count organizations: %w", err)
	}

	var out []*types.Organization
	if err := transaction.
		Order("created_at DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list organizations: %w", err)
	}
	return out, total, nil
}
