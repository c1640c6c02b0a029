package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

func (r *OrganizationRepository) FindByID(id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := r.db.First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// ListForUser returns organizations where the user is a member.
func (r *OrganizationRepository) ListForUser(userID uuid.UUID) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ?", userID).
		Order("organizations.name").
		Find(&orgs).Error
	return orgs, err
}

func (r *OrganizationRepository) AddMember(member *models.OrganizationMember) error {
	return r.db.Create(member).Error
}

func (r *OrganizationRepository) Members(orgID uuid.UUID) ([]models.OrganizationMember, error) {
	var members []models.OrganizationMember
	err := r.db.Where("organization_id = ?", orgID).Find(&members).Error
	return members, err
}

func (r *OrganizationRepository) IsMember(orgID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error
	return count > 0, err
}
