package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type MigrationRepository struct {
	db *gorm.DB
}

func NewMigrationRepository(db *gorm.DB) *MigrationRepository {
	return &MigrationRepository{db: db}
}

func (r *MigrationRepository) Create(migration *models.Migration) error {
	return r.db.Create(migration).Error
}

func (r *MigrationRepository) FindByID(id uuid.UUID) (*models.Migration, error) {
	var migration models.Migration
	err := r.db.First(&migration, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &migration, nil
}

func (r *MigrationRepository) List(limit int) ([]models.Migration, error) {
	var migrations []models.Migration
	q := r.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&migrations).Error
	return migrations, err
}

func (r *MigrationRepository) Update(migration *models.Migration) error {
	return r.db.Save(migration).Error
}

// AppendLog appends one line to the migration's log.
func (r *MigrationRepository) AppendLog(id uuid.UUID, line string) error {
	migration, err := r.FindByID(id)
	if err != nil || migration == nil {
		return err
	}
	migration.Log = append(migration.Log, line)
	return r.db.Model(migration).Update("log", migration.Log).Error
}
