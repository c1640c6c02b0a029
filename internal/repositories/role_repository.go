package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts the role together with its permission rows.
func (r *RoleRepository) Create(role *models.Role, permissions []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		for _, key := range permissions {
			perm := models.RolePermission{RoleID: role.ID, PermissionKey: key, GrantedByID: role.CreatedByID}
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RoleRepository) FindByID(id uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.db.Preload("Permissions").First(&role, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) FindByName(name string) (*models.Role, error) {
	var role models.Role
	err := r.db.Preload("Permissions").First(&role, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) List() ([]models.Role, error) {
	var roles []models.Role
	err := r.db.Preload("Permissions").
		Order("is_system DESC, name").
		Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) Update(role *models.Role) error {
	return r.db.Save(role).Error
}

func (r *RoleRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RolePermission{}, "role_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.UserRoleAssignment{}, "role_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, "id = ?", id).Error
	})
}

// ReplacePermissions swaps the role's permission rows for the given keys.
func (r *RoleRepository) ReplacePermissions(roleID uuid.UUID, keys []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RolePermission{}, "role_id = ?", roleID).Error; err != nil {
			return err
		}
		for _, key := range keys {
			perm := models.RolePermission{RoleID: roleID, PermissionKey: key}
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AssignmentsForUser returns the user's role assignments with roles and
// permissions preloaded.
func (r *RoleRepository) AssignmentsForUser(userID uuid.UUID) ([]models.UserRoleAssignment, error) {
	var assignments []models.UserRoleAssignment
	err := r.db.Preload("Role.Permissions").
		Where("user_id = ?", userID).
		Find(&assignments).Error
	return assignments, err
}

func (r *RoleRepository) Assign(userID, roleID, assignedBy uuid.UUID) error {
	assignment := models.UserRoleAssignment{UserID: userID, RoleID: roleID, AssignedByID: &assignedBy}
	return r.db.Create(&assignment).Error
}

func (r *RoleRepository) Unassign(userID, roleID uuid.UUID) error {
	return r.db.Delete(&models.UserRoleAssignment{}, "user_id = ? AND role_id = ?", userID, roleID).Error
}

// AssignedUserCount counts users holding the role.
func (r *RoleRepository) AssignedUserCount(roleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserRoleAssignment{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}
