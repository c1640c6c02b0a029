package models

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one issued token pair. ID doubles as the JWT jti so the auth
// middleware can check revocation with a single lookup.
type Session struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RefreshTokenHash string    `gorm:"not null" json:"-"`
	UserAgent        string    `json:"user_agent,omitempty"`
	IPAddress        string    `json:"ip_address,omitempty"`
	IsRevoked        bool      `gorm:"not null;default:false" json:"is_revoked"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt        time.Time `gorm:"not null" json:"expires_at"`
}

func (s *Session) Prepare() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
}
