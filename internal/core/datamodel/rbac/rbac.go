package rbac

import (
	"time"

	"gorm.io/gorm"

	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
)

// Role is a named permission bundle. Roles are stored locally; CRUD decisions
// are evaluated by the external policy engine.
type Role struct {
	ID          int64                          `gorm:"primaryKey"`
	Name        string                         `gorm:"column:name;uniqueIndex;not null"`
	Code        string                         `gorm:"column:code;uniqueIndex;not null"`
	Description string                         `gorm:"column:description"`
	PolicyRole  string                         `gorm:"column:policy_role;index"`
	// No default tag on is_active: GORM would omit an explicit false on
	// insert and let the column default win.
	IsActive    bool                           `gorm:"column:is_active;index"`
	IsSystem    bool                           `gorm:"column:is_system;default:false"`
	Level       int                            `gorm:"column:level;default:0"`
	CreatedByID *int64                         `gorm:"column:created_by_id"`
	Functions   []navigationDatamodel.Function `gorm:"many2many:role_functions"`
	CreatedAt   time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// RoleAssignment grants a role to a user, optionally scoped and expiring.
// A soft revoke flips is_active; rows are never hard-deleted through the API.
// Uniqueness over (user_id, role_id, scope_type, scope_id) is enforced by a
// COALESCE expression index in the migrations, since NULL scope columns are
// distinct under a plain unique index.
type RoleAssignment struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       int64      `gorm:"column:user_id;index;not null"`
	RoleID       int64      `gorm:"column:role_id;index;not null"`
	Role         *Role      `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	AssignedAt   time.Time  `gorm:"column:assigned_at;autoCreateTime"`
	AssignedByID *int64     `gorm:"column:assigned_by_id"`
	ExpiresAt    *time.Time `gorm:"column:expires_at;index"`
	ScopeType    *string    `gorm:"column:scope_type"`
	ScopeID      *int64     `gorm:"column:scope_id"`
	IsActive     bool       `gorm:"column:is_active;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}

func (a *RoleAssignment) IsExpired() bool {
	if a.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*a.ExpiresAt)
}

// BeforeSave deactivates expired assignments lazily: there is no background
// sweep, expiry takes effect whenever the row is next written.
func (a *RoleAssignment) BeforeSave(tx *gorm.DB) error {
	if a.IsExpired() && a.IsActive {
		a.IsActive = false
	}
	return nil
}
