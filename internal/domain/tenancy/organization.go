package tenancy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PlanFree       = "free"
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

func ValidPlan(p string) bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

type Organization struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	Slug     string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	PlanTier string    `gorm:"column:plan_tier;not null;default:'free'" json:"plan_tier"`

	MaxWorkspaces            int `gorm:"column:max_workspaces;not null;default:1" json:"max_workspaces"`
	MaxDocumentsPerWorkspace int `gorm:"column:max_documents_per_workspace;not null;default:100" json:"max_documents_per_workspace"`
	MaxMonthlyRequests       int `gorm:"column:max_monthly_requests;not null;default:1000" json:"max_monthly_requests"`

	ContactEmail string         `gorm:"column:contact_email" json:"contact_email,omitempty"`
	ContactName  string         `gorm:"column:contact_name" json:"contact_name,omitempty"`
	Settings     datatypes.JSON `gorm:"type:jsonb;column:settings" json:"settings,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Organization) TableName() string { return "organization" }
