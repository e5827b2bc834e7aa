package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/ragvault/internal/data/repos"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type Repos struct {
	Organization repos.OrganizationRepo
	Workspace    repos.WorkspaceRepo
	APIKey       repos.APIKeyRepo
	Document     repos.DocumentRepo
	Chunk        repos.ChunkRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Organization: repos.NewOrganizationRepo(db, log),
		Workspace:    repos.NewWorkspaceRepo(db, log),
		APIKey:       repos.NewAPIKeyRepo(db, log),
		Document:     repos.NewDocumentRepo(db, log),
		Chunk:        repos.NewChunkRepo(db, log),
	}
}
