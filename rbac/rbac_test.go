package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleLevel(t *testing.T) {
	assert.Equal(t, 100, RoleLevel("super_admin"))
	assert.Equal(t, 100, RoleLevel("SUPER_ADMIN"))
	assert.Equal(t, 80, RoleLevel("admin"))
	assert.Equal(t, 60, RoleLevel("developer"))
	assert.Equal(t, 60, RoleLevel("user"))
	assert.Equal(t, 40, RoleLevel("analyst"))
	assert.Equal(t, 20, RoleLevel("viewer"))
	assert.Equal(t, 0, RoleLevel("guest"))
	assert.Equal(t, 0, RoleLevel(""))
	assert.Equal(t, 0, RoleLevel("no_such_role"))
}

func TestCanManageRole(t *testing.T) {
	// super_admin manages everything, including itself
	for role := range RoleHierarchy {
		assert.True(t, CanManageRole("super_admin", role), role)
	}

	// admin manages any role except super_admin, even admin itself
	assert.True(t, CanManageRole("admin", "admin"))
	assert.True(t, CanManageRole("admin", "developer"))
	assert.True(t, CanManageRole("admin", "guest"))
	assert.False(t, CanManageRole("admin", "super_admin"))

	// everyone else needs a strictly higher level
	assert.False(t, CanManageRole("developer", "developer"))
	assert.False(t, CanManageRole("developer", "user")) // equal levels
	assert.True(t, CanManageRole("developer", "analyst"))
	assert.True(t, CanManageRole("analyst", "viewer"))
	assert.False(t, CanManageRole("viewer", "analyst"))
	assert.False(t, CanManageRole("guest", "guest"))
	assert.False(t, CanManageRole("", "viewer"))

	// unknown roles sit at level 0
	assert.True(t, CanManageRole("viewer", "no_such_role"))
	assert.False(t, CanManageRole("no_such_role", "viewer"))
}

func TestDefaultRolesAreWellFormed(t *testing.T) {
	for name, def := range DefaultRoles {
		assert.Equal(t, RoleLevel(name), def.Level, name)
		for _, p := range def.Permissions {
			assert.True(t, IsValidPermission(p), "%s grants unknown permission %s", name, p)
		}
	}

	// super_admin holds the entire catalog
	assert.Len(t, DefaultRoles["super_admin"].Permissions, len(AvailablePermissions))
}

func TestDefaultPermissionsFor(t *testing.T) {
	assert.Equal(t, DefaultRoles["developer"].Permissions, DefaultPermissionsFor("user"))
	assert.Equal(t, DefaultRoles["viewer"].Permissions, DefaultPermissionsFor("viewer"))
	assert.Nil(t, DefaultPermissionsFor("nope"))
}

func TestPermissionCategoriesCoverCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, keys := range PermissionCategories {
		for _, k := range keys {
			assert.True(t, IsValidPermission(k), k)
			seen[k] = true
		}
	}
	assert.Len(t, seen, len(AvailablePermissions))
}
