package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a configurable permission group. System roles are seeded from
// rbac.DefaultRoles and cannot be deleted.
type Role struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"not null;uniqueIndex" json:"name"`
	DisplayName string     `gorm:"not null" json:"display_name"`
	Description string     `json:"description,omitempty"`
	Level       int        `gorm:"not null;default:0" json:"level"`
	IsSystem    bool       `gorm:"not null;default:false" json:"is_system"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	Color       string     `gorm:"not null;default:#3B82F6" json:"color"`
	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Permissions []RolePermission `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// PermissionKeyList is the flattened view of Permissions, filled in by
	// the role service before a role is serialized.
	PermissionKeyList []string `gorm:"-" json:"permission_keys,omitempty"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// PermissionKeys flattens the role's permission rows.
func (r *Role) PermissionKeys() []string {
	keys := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		keys = append(keys, p.PermissionKey)
	}
	return keys
}

// RolePermission grants a single permission key to a role.
type RolePermission struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_perm" json:"role_id"`
	PermissionKey string     `gorm:"not null;uniqueIndex:idx_role_perm;index" json:"permission_key"`
	GrantedByID   *uuid.UUID `gorm:"type:uuid" json:"granted_by_id,omitempty"`
	GrantedAt     time.Time  `gorm:"autoCreateTime" json:"granted_at"`
}

func (p *RolePermission) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// UserRoleAssignment links a user to a role.
type UserRoleAssignment struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_role" json:"user_id"`
	RoleID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_role" json:"role_id"`
	AssignedByID *uuid.UUID `gorm:"type:uuid" json:"assigned_by_id,omitempty"`
	AssignedAt   time.Time  `gorm:"autoCreateTime" json:"assigned_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	Role *Role `gorm:"constraint:OnDelete:CASCADE" json:"role,omitempty"`
}

func (a *UserRoleAssignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
