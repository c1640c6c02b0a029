package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization scopes connections and memberships. The client selects one via
// the X-Organization-ID header.
type Organization struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

// OrganizationMember links a user to an organization.
type OrganizationMember struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_org_member" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_org_member" json:"user_id"`
	Role           string    `gorm:"column:member_role;not null;default:member" json:"role"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (m *OrganizationMember) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
