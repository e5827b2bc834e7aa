package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/ragvault/internal/data/repos/auth"
	"github.com/yungbote/ragvault/internal/data/repos/documents"
	"github.com/yungbote/ragvault/internal/data/repos/tenancy"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type OrganizationRepo = tenancy.OrganizationRepo
type WorkspaceRepo = tenancy.WorkspaceRepo

type APIKeyRepo = auth.APIKeyRepo

type DocumentRepo = documents.DocumentRepo
type ChunkRepo = documents.ChunkRepo

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return tenancy.NewOrganizationRepo(db, baseLog)
}
func NewWorkspaceRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceRepo {
	return tenancy.NewWorkspaceRepo(db, baseLog)
}

func NewAPIKeyRepo(db *gorm.DB, baseLog *logger.Logger) APIKeyRepo {
	return auth.NewAPIKeyRepo(db, baseLog)
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return documents.NewDocumentRepo(db, baseLog)
}
func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return documents.NewChunkRepo(db, baseLog)
}
