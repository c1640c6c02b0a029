package services

import (
	"errors"

	"github.com/google/uuid"

	"dblens/internal/models"
	"dblens/internal/repositories"
	"dblens/internal/utils"
	"dblens/rbac"
)

type UserService struct {
	userRepo *repositories.UserRepository
	auditSvc *AuditService
}

func NewUserService(userRepo *repositories.UserRepository, auditSvc *AuditService) *UserService {
	return &UserService{userRepo: userRepo, auditSvc: auditSvc}
}

func (s *UserService) List(limit, offset int) ([]models.User, int64, error) {
	users, err := s.userRepo.List(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.Count()
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Search(query string, limit int) ([]models.User, error) {
	return s.userRepo.Search(query, limit)
}

func (s *UserService) Get(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}

// Create lets an admin provision a user with an explicit role.
func (s *UserService) Create(actor *models.User, username, email, password, role string) (*models.User, error) {
	if !rbac.CanManageRole(actor.Role, role) {
		return nil, errors.New("cannot create a user with a role at or above your own")
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}
	if existing, err := s.userRepo.FindByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.New("email is already registered")
	}
	if existing, err := s.userRepo.FindByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.New("username is already taken")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "user_create",
		ResourceType:      "user",
		ResourceID:        user.ID.String(),
		ResourceName:      user.Username,
		ActionDescription: "User created by admin",
	})
	return user, nil
}

type UserUpdate struct {
	Email    *string
	Role     *string
	IsActive *bool
}

func (s *UserService) Update(actor *models.User, id uuid.UUID, upd UserUpdate) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanManageRole(actor.Role, user.Role) && actor.ID != user.ID {
		return nil, errors.New("insufficient privileges to manage this user")
	}

	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.Role != nil && *upd.Role != user.Role {
		if actor.ID == user.ID {
			return nil, errors.New("cannot change your own role")
		}
		if !rbac.CanManageRole(actor.Role, *upd.Role) {
			return nil, errors.New("cannot grant a role at or above your own")
		}
		user.Role = *upd.Role
	}
	if upd.IsActive != nil {
		if actor.ID == user.ID && !*upd.IsActive {
			return nil, errors.New("cannot deactivate your own account")
		}
		user.IsActive = *upd.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "user_update",
		ResourceType:      "user",
		ResourceID:        user.ID.String(),
		ResourceName:      user.Username,
		ActionDescription: "User updated",
	})
	return user, nil
}

func (s *UserService) Delete(actor *models.User, id uuid.UUID) error {
	if actor.ID == id {
		return errors.New("cannot delete your own account")
	}
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if !rbac.CanManageRole(actor.Role, user.Role) {
		return errors.New("insufficient privileges to delete this user")
	}
	if err := s.userRepo.Delete(id); err != nil {
		return err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "user_delete",
		ResourceType:      "user",
		ResourceID:        id.String(),
		ResourceName:      user.Username,
		ActionDescription: "User deleted",
	})
	return nil
}
