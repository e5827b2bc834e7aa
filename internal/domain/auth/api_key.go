package auth

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/ragvault/internal/domain/tenancy"
)

const (
	ScopeSearch = "search"
	ScopeChat   = "chat"
)

var DefaultScopes = []string{ScopeChat, ScopeSearch}

// APIKey never stores the credential itself, only its lookup prefix and hash.
// Keys are revoked, never deleted.
type APIKey struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID uuid.UUID          `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Workspace   *tenancy.Workspace `gorm:"constraint:OnDelete:CASCADE;foreignKey:WorkspaceID;references:ID" json:"-"`

	Name      string         `gorm:"column:name;not null" json:"name"`
	KeyPrefix string         `gorm:"column:key_prefix;uniqueIndex;not null" json:"key_prefix"`
	KeyHash   string         `gorm:"column:key_hash;not null" json:"-"`
	Scopes    datatypes.JSON `gorm:"type:jsonb;column:scopes" json:"scopes"`

	RateLimitPerMinute int `gorm:"column:rate_limit_per_minute;not null;default:60" json:"rate_limit_per_minute"`

	IsActive   bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	LastUsedAt *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (APIKey) TableName() string { return "api_key" }

func (k *APIKey) ScopeList() []string {
	if k == nil || len(k.Scopes) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(k.Scopes, &out); err != nil {
		return nil
	}
	return out
}

func EncodeScopes(scopes []string) datatypes.JSON {
	if scopes == nil {
		scopes = []string{}
	}
	b, _ := json.Marshal(scopes)
	return datatypes.JSON(b)
}

// Usable reports whether the key may authenticate at now, with a short reason
// for logs when it may not.
func (k *APIKey) Usable(now time.Time) (bool, string) {
	switch {
	case k == nil:
		return false, "missing"
	case !k.IsActive:
		return false, "inactive"
	case k.RevokedAt != nil:
		return false, "revoked"
	case k.ExpiresAt != nil && !now.Before(*k.ExpiresAt):
		return false, "expired"
	}
	return true, ""
}
