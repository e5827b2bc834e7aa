package tenancy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Workspace is the isolation boundary. Every document, chunk and key belongs
// to exactly one workspace.
type Workspace struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_workspace_org_slug,priority:1" json:"organization_id"`
	Organization   *Organization `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"-"`

	Name        string         `gorm:"column:name;not null" json:"name"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex:idx_workspace_org_slug,priority:2" json:"slug"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Settings    datatypes.JSON `gorm:"type:jsonb;column:settings" json:"settings,omitempty"`

	// Zero means unlimited.
	MaxDocuments       int `gorm:"column:max_documents;not null;default:0" json:"max_documents"`
	MaxMonthlyRequests int `gorm:"column:max_monthly_requests;not null;default:0" json:"max_monthly_requests"`

	DocumentCount      int       `gorm:"column:document_count;not null;default:0" json:"document_count"`
	MonthlyRequests    int       `gorm:"column:monthly_requests;not null;default:0" json:"monthly_requests"`
	LastRequestResetAt time.Time `gorm:"column:last_request_reset_at;not null;default:now()" json:"last_request_reset_at"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Workspace) TableName() string { return "workspace" }

// MonthlyBudgetExhausted reports whether another search would exceed the
// workspace's monthly allowance as of now. A counter from an earlier calendar
// month counts as zero.
func (w *Workspace) MonthlyBudgetExhausted(now time.Time) bool {
	if w == nil || w.MaxMonthlyRequests <= 0 {
		return false
	}
	used := w.MonthlyRequests
	if !sameMonth(w.LastRequestResetAt, now) {
		used = 0
	}
	return used >= w.MaxMonthlyRequests
}

// NextMonthStart is when a monthly budget resets.
func NextMonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

func sameMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}
