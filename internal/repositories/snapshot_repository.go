package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Create(snapshot *models.Snapshot) error {
	return r.db.Create(snapshot).Error
}

func (r *SnapshotRepository) FindByID(id uuid.UUID) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	err := r.db.First(&snapshot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *SnapshotRepository) ListByConnection(connectionID uuid.UUID) ([]models.Snapshot, error) {
	var snapshots []models.Snapshot
	err := r.db.Where("connection_id = ?", connectionID).
		Order("created_at DESC").
		Find(&snapshots).Error
	return snapshots, err
}

func (r *SnapshotRepository) Update(snapshot *models.Snapshot) error {
	return r.db.Save(snapshot).Error
}

func (r *SnapshotRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Snapshot{}, "id = ?", id).Error
}
