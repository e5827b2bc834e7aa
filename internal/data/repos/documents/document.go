package documents

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, doc *types.Document) (*types.Document, error)
	GetByID(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (*types.Document, error)
	ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID, limit, offset int) ([]*types.Document, int64, error)
	// Delete removes the document and its chunks. Run it inside a transaction
	// so both go together. Returns false when nothing matched.
	Delete(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (bool, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	repoLog := baseLog.With("repo", "DocumentRepo")
	return &documentRepo{db: db, log: repoLog}
}

func (r *documentRepo) Create(dbc dbctx.Context, doc *types.Document) (*types.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if doc.WorkspaceID == uuid.Nil {
		return nil, fmt.Errorf("document workspace_id is required")
	}
	if err := dbc.DB(r.db).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// GetByID returns nil, nil when the document does not exist in workspaceID,
// including when it exists in another workspace.
func (r *documentRepo) GetByID(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (*types.Document, error) {
	if workspaceID == uuid.Nil || documentID == uuid.Nil {
		return nil, nil
	}
	var doc types.Document
	err := dbc.DB(r.db).
		Where("id = ? AND workspace_id = ?", documentID, workspaceID).
		Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID, limit, offset int) ([]*types.Document, int64, error) {
	out := []*types.Document{}
	if workspaceID == uuid.Nil {
		return out, 0, nil
	}
	transaction := dbc.DB(r.db)

	var total int64
	if err := transaction.Model(&types.Document{}).
		Where("workspace_id = ?", workspaceID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	if err := transaction.
		Select("id", "workspace_id", "title", "source", "metadata", "created_at", "updated_at").
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return out, total, nil
}

func (r *documentRepo) Delete(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (bool, error) {
	if workspaceID == uuid.Nil || documentID == uuid.Nil {
		return false, nil
	}
	transaction := dbc.DB(r.db)

	if err := transaction.
		Where("document_id = ? AND workspace_id = ?", documentID, workspaceID).
		Delete(&types.Chunk{}).Error; err != nil {
		return false, fmt.Errorf("delete chunks: %w", err)
	}
	res := transaction.
		Where("id = ? AND workspace_id = ?", documentID, workspaceID).
		Delete(&types.Document{})
	if res.Error != nil {
		return false, fmt.Errorf("delete document: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
