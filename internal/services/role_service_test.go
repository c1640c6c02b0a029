package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dblens/internal/models"
	"dblens/internal/repositories"
)

func testRoleService(t *testing.T) (*RoleService, *repositories.UserRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "roles.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserRoleAssignment{},
		&models.AuditLog{},
	))

	roleRepo := repositories.NewRoleRepository(db)
	userRepo := repositories.NewUserRepository(db)
	auditSvc := NewAuditService(repositories.NewAuditRepository(db))
	svc := NewRoleService(roleRepo, userRepo, auditSvc)
	require.NoError(t, svc.SeedSystemRoles())
	return svc, userRepo
}

func createUser(t *testing.T, userRepo *repositories.UserRepository, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, userRepo.Create(user))
	return user
}

func TestSeedSystemRolesIsIdempotent(t *testing.T) {
	svc, _ := testRoleService(t)

	roles, err := svc.List()
	require.NoError(t, err)
	seeded := len(roles)
	assert.GreaterOrEqual(t, seeded, 5)

	require.NoError(t, svc.SeedSystemRoles())
	roles, err = svc.List()
	require.NoError(t, err)
	assert.Len(t, roles, seeded)

	byName := map[string]models.Role{}
	for _, role := range roles {
		byName[role.Name] = role
	}
	admin := byName["admin"]
	assert.True(t, admin.IsSystem)
	assert.Equal(t, 80, admin.Level)
	assert.Contains(t, admin.PermissionKeys(), "admin.users")
	assert.NotContains(t, admin.PermissionKeys(), "admin.roles")
}

func TestCreateRoleGuards(t *testing.T) {
	svc, userRepo := testRoleService(t)
	superAdmin := createUser(t, userRepo, "root", "super_admin")
	viewer := createUser(t, userRepo, "reader", "viewer")

	_, err := svc.Create(viewer, "auditor", "Auditor", "", 30, []string{"audit.view"})
	assert.Error(t, err, "viewers cannot create roles")

	_, err = svc.Create(superAdmin, "auditor", "Auditor", "", 30, []string{"not.a.permission"})
	assert.Error(t, err)

	role, err := svc.Create(superAdmin, "auditor", "Auditor", "Audit access", 30, []string{"audit.view", "audit.export"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"audit.view", "audit.export"}, role.PermissionKeys())

	_, err = svc.Create(superAdmin, "auditor", "Auditor", "", 30, nil)
	assert.Error(t, err, "duplicate names are rejected")
}

func TestAdminOnlyPermissionsNeedSuperAdmin(t *testing.T) {
	svc, userRepo := testRoleService(t)
	superAdmin := createUser(t, userRepo, "root", "super_admin")
	admin := createUser(t, userRepo, "boss", "admin")

	for _, key := range []string{"admin.roles", "admin.system"} {
		_, err := svc.Create(admin, "ops-"+key, "Ops", "", 30, []string{key})
		assert.Error(t, err, "admins cannot grant %s", key)
	}

	role, err := svc.Create(admin, "ops", "Ops", "", 30, []string{"admin.users"})
	require.NoError(t, err)

	_, err = svc.Update(admin, role.ID, nil, nil, []string{"admin.system"})
	assert.Error(t, err, "admin-only keys are rejected on update too")

	role, err = svc.Update(superAdmin, role.ID, nil, nil, []string{"admin.system"})
	require.NoError(t, err)
	assert.Contains(t, role.PermissionKeys(), "admin.system")
}

func TestSystemRolePermissionsAreImmutable(t *testing.T) {
	svc, userRepo := testRoleService(t)
	superAdmin := createUser(t, userRepo, "root", "super_admin")

	roles, err := svc.List()
	require.NoError(t, err)
	var viewerRole *models.Role
	for i := range roles {
		if roles[i].Name == "viewer" {
			viewerRole = &roles[i]
		}
	}
	require.NotNil(t, viewerRole)

	_, err = svc.Update(superAdmin, viewerRole.ID, nil, nil, []string{"admin.system"})
	assert.Error(t, err)

	err = svc.Delete(superAdmin, viewerRole.ID)
	assert.Error(t, err, "system roles cannot be deleted")

	// Renaming the display name of a system role is fine.
	name := "Read Only"
	updated, err := svc.Update(superAdmin, viewerRole.ID, &name, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Read Only", updated.DisplayName)
}

func TestDeleteRoleInUse(t *testing.T) {
	svc, userRepo := testRoleService(t)
	superAdmin := createUser(t, userRepo, "root", "super_admin")
	member := createUser(t, userRepo, "member", "viewer")

	role, err := svc.Create(superAdmin, "auditor", "Auditor", "", 30, []string{"audit.view"})
	require.NoError(t, err)

	require.NoError(t, svc.Assign(superAdmin, member.ID, role.ID))
	assert.ErrorIs(t, svc.Delete(superAdmin, role.ID), ErrRoleInUse)

	require.NoError(t, svc.Unassign(superAdmin, member.ID, role.ID))
	assert.NoError(t, svc.Delete(superAdmin, role.ID))
}

func TestPermissionsForMergesAssignments(t *testing.T) {
	svc, userRepo := testRoleService(t)
	superAdmin := createUser(t, userRepo, "root", "super_admin")
	member := createUser(t, userRepo, "member", "viewer")

	role, err := svc.Create(superAdmin, "auditor", "Auditor", "", 30, []string{"audit.export"})
	require.NoError(t, err)
	require.NoError(t, svc.Assign(superAdmin, member.ID, role.ID))

	perms, err := svc.PermissionsFor(member)
	require.NoError(t, err)

	assert.Equal(t, []string{"viewer", "auditor"}, perms.Roles)
	assert.Contains(t, perms.Permissions, "audit.view")   // from the viewer defaults
	assert.Contains(t, perms.Permissions, "audit.export") // from the assignment
	assert.Equal(t, "auditor", perms.HighestRole)
	assert.Equal(t, 30, perms.HighestLevel)
	assert.False(t, perms.IsAdmin)
	assert.False(t, perms.IsSuperAdmin)
	assert.False(t, perms.CanManageRoles)

	ok, err := svc.HasPermission(member, "audit.export")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(member, "admin.users")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionSuperAdminShortCircuit(t *testing.T) {
	svc, userRepo := testRoleService(t)
	superAdmin := createUser(t, userRepo, "root", "super_admin")

	ok, err := svc.HasPermission(superAdmin, "anything.unknown")
	require.NoError(t, err)
	assert.True(t, ok)
}
