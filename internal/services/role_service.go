package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"dblens/internal/models"
	"dblens/internal/repositories"
	"dblens/rbac"
)

var ErrRoleInUse = errors.New("role is assigned to users and cannot be deleted")

type RoleService struct {
	roleRepo *repositories.RoleRepository
	userRepo *repositories.UserRepository
	auditSvc *AuditService
}

func NewRoleService(roleRepo *repositories.RoleRepository, userRepo *repositories.UserRepository, auditSvc *AuditService) *RoleService {
	return &RoleService{roleRepo: roleRepo, userRepo: userRepo, auditSvc: auditSvc}
}

// SeedSystemRoles makes sure every built-in role exists with its default
// permission set. Called once at startup; existing rows are left untouched.
func (s *RoleService) SeedSystemRoles() error {
	for name, def := range rbac.DefaultRoles {
		existing, err := s.roleRepo.FindByName(name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		role := &models.Role{
			Name:        name,
			DisplayName: def.DisplayName,
			Description: def.Description,
			Level:       def.Level,
			Color:       def.Color,
			IsSystem:    true,
		}
		if err := s.roleRepo.Create(role, def.Permissions); err != nil {
			return fmt.Errorf("seeding role %s: %w", name, err)
		}
	}
	return nil
}

func (s *RoleService) List() ([]models.Role, error) {
	roles, err := s.roleRepo.List()
	if err != nil {
		return nil, err
	}
	for i := range roles {
		roles[i].PermissionKeyList = roles[i].PermissionKeys()
	}
	return roles, nil
}

func (s *RoleService) Get(id uuid.UUID) (*models.Role, error) {
	role, err := s.roleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errors.New("role not found")
	}
	role.PermissionKeyList = role.PermissionKeys()
	return role, nil
}

// validateGrants rejects unknown permission keys and admin-only keys coming
// from anyone below super_admin.
func validateGrants(actor *models.User, permissions []string) error {
	for _, p := range permissions {
		if !rbac.IsValidPermission(p) {
			return fmt.Errorf("unknown permission: %s", p)
		}
		if rbac.IsAdminOnlyPermission(p) && actor.Role != "super_admin" {
			return fmt.Errorf("only a super admin can grant %s", p)
		}
	}
	return nil
}

func (s *RoleService) Create(actor *models.User, name, displayName, description string, level int, permissions []string) (*models.Role, error) {
	if level >= rbac.RoleLevel(actor.Role) {
		return nil, errors.New("cannot create a role at or above your own level")
	}
	if err := validateGrants(actor, permissions); err != nil {
		return nil, err
	}
	existing, err := s.roleRepo.FindByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("a role with this name already exists")
	}

	role := &models.Role{
		Name:        name,
		DisplayName: displayName,
		Description: description,
		Level:       level,
	}
	if err := s.roleRepo.Create(role, permissions); err != nil {
		return nil, err
	}

	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "role_create",
		ResourceType:      "role",
		ResourceID:        role.ID.String(),
		ResourceName:      role.Name,
		ActionDescription: "Role created",
	})
	return s.Get(role.ID)
}

func (s *RoleService) Update(actor *models.User, id uuid.UUID, displayName, description *string, permissions []string) (*models.Role, error) {
	role, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem && permissions != nil {
		return nil, errors.New("permissions of system roles cannot be changed")
	}
	if !rbac.CanManageRole(actor.Role, role.Name) {
		return nil, errors.New("insufficient privileges to manage this role")
	}

	if displayName != nil {
		role.DisplayName = *displayName
	}
	if description != nil {
		role.Description = *description
	}
	if err := s.roleRepo.Update(role); err != nil {
		return nil, err
	}

	if permissions != nil {
		if err := validateGrants(actor, permissions); err != nil {
			return nil, err
		}
		if err := s.roleRepo.ReplacePermissions(role.ID, permissions); err != nil {
			return nil, err
		}
	}

	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "role_update",
		ResourceType:      "role",
		ResourceID:        role.ID.String(),
		ResourceName:      role.Name,
		ActionDescription: "Role updated",
	})
	return s.Get(role.ID)
}

func (s *RoleService) Delete(actor *models.User, id uuid.UUID) error {
	role, err := s.Get(id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return errors.New("system roles cannot be deleted")
	}
	if !rbac.CanManageRole(actor.Role, role.Name) {
		return errors.New("insufficient privileges to manage this role")
	}
	count, err := s.roleRepo.AssignedUserCount(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}
	if err := s.roleRepo.Delete(id); err != nil {
		return err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "role_delete",
		ResourceType:      "role",
		ResourceID:        id.String(),
		ResourceName:      role.Name,
		ActionDescription: "Role deleted",
	})
	return nil
}

// Assign gives a user an extra role on top of the primary one.
func (s *RoleService) Assign(actor *models.User, userID, roleID uuid.UUID) error {
	role, err := s.Get(roleID)
	if err != nil {
		return err
	}
	if !rbac.CanManageRole(actor.Role, role.Name) {
		return errors.New("insufficient privileges to assign this role")
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}
	if err := s.roleRepo.Assign(userID, roleID, actor.ID); err != nil {
		return err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "role_assign",
		ResourceType:      "user",
		ResourceID:        userID.String(),
		ResourceName:      user.Username,
		ActionDescription: fmt.Sprintf("Assigned role %s", role.Name),
	})
	return nil
}

func (s *RoleService) Unassign(actor *models.User, userID, roleID uuid.UUID) error {
	role, err := s.Get(roleID)
	if err != nil {
		return err
	}
	if !rbac.CanManageRole(actor.Role, role.Name) {
		return errors.New("insufficient privileges to remove this role")
	}
	if err := s.roleRepo.Unassign(userID, roleID); err != nil {
		return err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "role_unassign",
		ResourceType:      "user",
		ResourceID:        userID.String(),
		ActionDescription: fmt.Sprintf("Removed role %s", role.Name),
	})
	return nil
}

// UserPermissions is the payload behind /roles/my-permissions. The client SDK
// builds its permission evaluator from exactly these fields.
type UserPermissions struct {
	UserID         string   `json:"user_id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Roles          []string `json:"roles"`
	Permissions    []string `json:"permissions"`
	HighestRole    string   `json:"highest_role"`
	HighestLevel   int      `json:"highest_level"`
	IsSuperAdmin   bool     `json:"is_super_admin"`
	IsAdmin        bool     `json:"is_admin"`
	CanManageRoles bool     `json:"can_manage_roles"`
}

// PermissionsFor resolves a user's effective permissions: the primary role's
// defaults plus everything granted through extra role assignments.
func (s *RoleService) PermissionsFor(user *models.User) (*UserPermissions, error) {
	permSet := make(map[string]struct{})
	roles := []string{user.Role}
	highestRole := user.Role
	highestLevel := rbac.RoleLevel(user.Role)

	for _, p := range rbac.DefaultPermissionsFor(user.Role) {
		permSet[p] = struct{}{}
	}

	assignments, err := s.roleRepo.AssignmentsForUser(user.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if a.Role == nil {
			continue
		}
		if a.Role.Name != user.Role {
			roles = append(roles, a.Role.Name)
		}
		if a.Role.Level > highestLevel {
			highestLevel = a.Role.Level
			highestRole = a.Role.Name
		}
		for _, p := range a.Role.PermissionKeys() {
			permSet[p] = struct{}{}
		}
	}

	permissions := make([]string, 0, len(permSet))
	for p := range permSet {
		permissions = append(permissions, p)
	}
	sort.Strings(permissions)

	_, canManage := permSet["admin.roles"]

	return &UserPermissions{
		UserID:         user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		Roles:          roles,
		Permissions:    permissions,
		HighestRole:    highestRole,
		HighestLevel:   highestLevel,
		IsSuperAdmin:   highestLevel >= 100,
		IsAdmin:        highestLevel >= 80,
		CanManageRoles: canManage || highestLevel >= 100,
	}, nil
}

// HasPermission is the server-side permission gate used by middleware.
func (s *RoleService) HasPermission(user *models.User, permission string) (bool, error) {
	if rbac.RoleLevel(user.Role) >= 100 {
		return true, nil
	}
	perms, err := s.PermissionsFor(user)
	if err != nil {
		return false, err
	}
	for _, p := range perms.Permissions {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func (s *RoleService) Catalog() map[string]string {
	return rbac.AvailablePermissions
}

func (s *RoleService) Categories() map[string][]string {
	return rbac.PermissionCategories
}
