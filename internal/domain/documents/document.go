package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/ragvault/internal/domain/tenancy"
)

type Document struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID uuid.UUID          `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Workspace   *tenancy.Workspace `gorm:"constraint:OnDelete:CASCADE;foreignKey:WorkspaceID;references:ID" json:"-"`

	Title    string         `gorm:"column:title;not null" json:"title"`
	Source   string         `gorm:"column:source;not null" json:"source"`
	Content  string         `gorm:"column:content;type:text" json:"content,omitempty"`
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }
