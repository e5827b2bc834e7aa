package documents

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/yungbote/ragvault/internal/domain/tenancy"
)

// EmbeddingDimensions is the width of chunk.embedding. Query embeddings are
// requested at the same width.
const EmbeddingDimensions = 1536

// Chunk is a retrievable fragment of a Document. WorkspaceID duplicates
// Document.WorkspaceID so every search can filter on the chunk row itself.
type Chunk struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"document_id"`
	Document    *Document          `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	WorkspaceID uuid.UUID          `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Workspace   *tenancy.Workspace `gorm:"constraint:OnDelete:CASCADE;foreignKey:WorkspaceID;references:ID" json:"-"`

	// Seq is assigned by the database and gives a stable insertion order.
	Seq        int64            `gorm:"column:seq;autoIncrement;not null" json:"-"`
	ChunkIndex int              `gorm:"column:chunk_index;not null" json:"chunk_index"`
	Content    string           `gorm:"column:content;type:text;not null" json:"content"`
	TokenCount int              `gorm:"column:token_count" json:"token_count,omitempty"`
	Embedding  *pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`
	Metadata   datatypes.JSON   `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Chunk) TableName() string { return "chunk" }
