package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *models.Session) error {
	session.Prepare()
	return r.db.Create(session).Error
}

func (r *SessionRepository) FindByID(id uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListActiveForUser returns the user's non-revoked, unexpired sessions.
func (r *SessionRepository) ListActiveForUser(userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.
		Where("user_id = ? AND is_revoked = ? AND expires_at > ?", userID, false, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) Revoke(id uuid.UUID) error {
	return r.db.Model(&models.Session{}).Where("id = ?", id).Update("is_revoked", true).Error
}

func (r *SessionRepository) RevokeAllForUser(userID uuid.UUID) error {
	return r.db.Model(&models.Session{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
}

func (r *SessionRepository) DeleteExpired() error {
	return r.db.Delete(&models.Session{}, "expires_at < ?", time.Now()).Error
}
