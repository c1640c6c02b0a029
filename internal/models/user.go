package models

import (
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account in the DBLens metadata store. Role holds the legacy
// single-role name; fine-grained access comes from UserRoleAssignment rows.
type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string     `gorm:"not null;uniqueIndex" json:"username"`
	Email          string     `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	Role           string     `gorm:"not null;default:viewer" json:"role"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	FailedLogins   int        `gorm:"not null;default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`
	OrganizationID *uuid.UUID `gorm:"type:uuid" json:"organization_id,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

func (u *User) Prepare() {
	u.Username = html.EscapeString(strings.TrimSpace(u.Username))
	u.Email = html.EscapeString(strings.TrimSpace(strings.ToLower(u.Email)))
}
