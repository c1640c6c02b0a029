package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Create(conn *models.DatabaseConnection) error {
	return r.db.Create(conn).Error
}

func (r *ConnectionRepository) FindByID(id uuid.UUID) (*models.DatabaseConnection, error) {
	var conn models.DatabaseConnection
	err := r.db.First(&conn, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// List returns all connections, scoped to one organization when orgID is set.
func (r *ConnectionRepository) List(orgID *uuid.UUID) ([]models.DatabaseConnection, error) {
	var conns []models.DatabaseConnection
	q := r.db.Order("created_at")
	if orgID != nil {
		q = q.Where("organization_id = ?", *orgID)
	}
	err := q.Find(&conns).Error
	return conns, err
}

func (r *ConnectionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.DatabaseConnection{}).Count(&count).Error
	return count, err
}

func (r *ConnectionRepository) Update(conn *models.DatabaseConnection) error {
	return r.db.Save(conn).Error
}

func (r *ConnectionRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.DatabaseConnection{}, "id = ?", id).Error
}
