package domain

import (
	"github.com/yungbote/ragvault/internal/domain/auth"
	"github.com/yungbote/ragvault/internal/domain/documents"
	"github.com/yungbote/ragvault/internal/domain/tenancy"
)

type (
	Organization = tenancy.Organization
	Workspace    = tenancy.Workspace
	Document     = documents.Document
	Chunk        = documents.Chunk
	APIKey       = auth.APIKey
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Organization{},
		&Workspace{},
		&Document{},
		&Chunk{},
		&APIKey{},
	}
}
