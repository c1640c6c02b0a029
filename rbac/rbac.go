// Package rbac defines the role hierarchy and the permission vocabulary shared
// by the API server and the client SDK.
package rbac

import "strings"

// RoleHierarchy maps role names to a numeric authority level. Comparison is
// always relative; levels are never persisted outside a session snapshot.
var RoleHierarchy = map[string]int{
	"super_admin": 100,
	"admin":       80,
	"developer":   60,
	"user":        60, // legacy role, same level as developer
	"analyst":     40,
	"viewer":      20,
	"guest":       0,
}

// RoleLevel returns the hierarchy level of a role (case-insensitive).
// Unknown roles are level 0.
func RoleLevel(role string) int {
	if role == "" {
		return 0
	}
	return RoleHierarchy[strings.ToLower(role)]
}

// CanManageRole reports whether manager can manage target based on the
// hierarchy. super_admin manages everything; admin manages any role except
// super_admin regardless of levels; everyone else needs a strictly higher
// level.
func CanManageRole(manager, target string) bool {
	manager = strings.ToLower(manager)
	target = strings.ToLower(target)

	if manager == "super_admin" {
		return true
	}
	if manager == "admin" && target != "super_admin" {
		return true
	}
	return RoleLevel(manager) > RoleLevel(target)
}

// AvailablePermissions maps every known permission key to its display name.
var AvailablePermissions = map[string]string{
	"dashboard.view": "View Dashboard",

	"connections.view":   "View Connections",
	"connections.create": "Create Connections",
	"connections.edit":   "Edit Connections",
	"connections.delete": "Delete Connections",
	"connections.test":   "Test Connections",

	"schema.view":    "View Schema",
	"schema.diagram": "View Schema Diagram",

	"query.execute": "Execute Queries",
	"query.save":    "Save Queries",

	"monitoring.view":      "View Monitoring",
	"monitoring.configure": "Configure Monitoring Alerts",

	"audit.view":   "View Audit Logs",
	"audit.export": "Export Audit Logs",

	"backups.view":     "View Backups",
	"backups.create":   "Create Backups",
	"backups.restore":  "Restore Backups",
	"backups.delete":   "Delete Backups",
	"backups.download": "Download Backups",

	"schedules.view":   "View Schedules",
	"schedules.create": "Create Schedules",
	"schedules.edit":   "Edit Schedules",
	"schedules.delete": "Delete Schedules",

	"migrations.view":    "View Migrations",
	"migrations.execute": "Execute Migrations",

	"snapshots.view":    "View Snapshots",
	"snapshots.create":  "Create Snapshots",
	"snapshots.restore": "Restore Snapshots",
	"snapshots.delete":  "Delete Snapshots",

	"documentation.view": "View Documentation",
	"documentation.edit": "Edit Documentation",

	"performance.view": "View Performance Analysis",

	"teams.view":   "View Teams",
	"teams.create": "Create Teams",
	"teams.manage": "Manage Team Members",

	"system.health": "View System Health",
	"system.pool":   "View Connection Pool",

	"settings.view": "View Settings",
	"settings.edit": "Edit Profile",

	"admin.users":  "Manage Users",
	"admin.roles":  "Manage Roles",
	"admin.system": "System Administration",
}

// PermissionCategories groups permission keys for the role-editor UI.
var PermissionCategories = map[string][]string{
	"Dashboard":      {"dashboard.view"},
	"Connections":    {"connections.view", "connections.create", "connections.edit", "connections.delete", "connections.test"},
	"Schema":         {"schema.view", "schema.diagram"},
	"Query":          {"query.execute", "query.save"},
	"Monitoring":     {"monitoring.view", "monitoring.configure"},
	"Audit Logs":     {"audit.view", "audit.export"},
	"Backups":        {"backups.view", "backups.create", "backups.restore", "backups.delete", "backups.download"},
	"Schedules":      {"schedules.view", "schedules.create", "schedules.edit", "schedules.delete"},
	"Migrations":     {"migrations.view", "migrations.execute"},
	"Snapshots":      {"snapshots.view", "snapshots.create", "snapshots.restore", "snapshots.delete"},
	"Documentation":  {"documentation.view", "documentation.edit"},
	"Performance":    {"performance.view"},
	"Teams":          {"teams.view", "teams.create", "teams.manage"},
	"System":         {"system.health", "system.pool"},
	"Settings":       {"settings.view", "settings.edit"},
	"Administration": {"admin.users", "admin.roles", "admin.system"},
}

// AdminOnlyPermissions may only be granted by a super_admin.
var AdminOnlyPermissions = []string{"admin.roles", "admin.system"}

// IsAdminOnlyPermission reports whether granting key requires a super_admin.
func IsAdminOnlyPermission(key string) bool {
	for _, p := range AdminOnlyPermissions {
		if p == key {
			return true
		}
	}
	return false
}

// DefaultRole describes a built-in system role.
type DefaultRole struct {
	DisplayName string
	Description string
	Color       string
	Level       int
	Permissions []string
}

// DefaultRoles are the system roles seeded on first start.
var DefaultRoles = map[string]DefaultRole{
	"super_admin": {
		DisplayName: "Super Admin",
		Description: "Full access to all features including role management",
		Color:       "#DC2626",
		Level:       100,
		Permissions: AllPermissionKeys(),
	},
	"admin": {
		DisplayName: "Administrator",
		Description: "Administrative access with user management (cannot manage Super Admin)",
		Color:       "#F59E0B",
		Level:       80,
		Permissions: []string{
			"dashboard.view",
			"connections.view", "connections.create", "connections.edit", "connections.delete", "connections.test",
			"schema.view", "schema.diagram",
			"query.execute", "query.save",
			"monitoring.view", "monitoring.configure",
			"audit.view", "audit.export",
			"backups.view", "backups.create", "backups.restore", "backups.delete", "backups.download",
			"schedules.view", "schedules.create", "schedules.edit", "schedules.delete",
			"migrations.view", "migrations.execute",
			"snapshots.view", "snapshots.create", "snapshots.restore", "snapshots.delete",
			"documentation.view", "documentation.edit",
			"performance.view",
			"teams.view", "teams.create", "teams.manage",
			"system.health", "system.pool",
			"settings.view", "settings.edit",
			"admin.users",
		},
	},
	"developer": {
		DisplayName: "Developer",
		Description: "Full access to database operations, no admin access",
		Color:       "#3B82F6",
		Level:       60,
		Permissions: []string{
			"dashboard.view",
			"connections.view", "connections.create", "connections.edit", "connections.test",
			"schema.view", "schema.diagram",
			"query.execute", "query.save",
			"monitoring.view",
			"audit.view",
			"backups.view", "backups.create",
			"schedules.view", "schedules.create",
			"migrations.view", "migrations.execute",
			"snapshots.view", "snapshots.create",
			"documentation.view", "documentation.edit",
			"performance.view",
			"teams.view",
			"system.health",
			"settings.view", "settings.edit",
		},
	},
	"analyst": {
		DisplayName: "Analyst",
		Description: "Read-only access with query execution capability",
		Color:       "#8B5CF6",
		Level:       40,
		Permissions: []string{
			"dashboard.view",
			"connections.view",
			"schema.view", "schema.diagram",
			"query.execute",
			"monitoring.view",
			"audit.view",
			"backups.view",
			"documentation.view",
			"performance.view",
			"settings.view",
		},
	},
	"viewer": {
		DisplayName: "Viewer",
		Description: "Read-only access to view data",
		Color:       "#6B7280",
		Level:       20,
		Permissions: []string{
			"dashboard.view",
			"connections.view",
			"schema.view",
			"monitoring.view",
			"audit.view",
			"documentation.view",
			"settings.view",
		},
	},
}

// AllPermissionKeys returns every known permission key.
func AllPermissionKeys() []string {
	keys := make([]string, 0, len(AvailablePermissions))
	for k := range AvailablePermissions {
		keys = append(keys, k)
	}
	return keys
}

// IsValidPermission reports whether key is part of the catalog.
func IsValidPermission(key string) bool {
	_, ok := AvailablePermissions[key]
	return ok
}

// DefaultPermissionsFor returns the built-in permission set for a legacy role
// name, mapping "user" onto the developer set.
func DefaultPermissionsFor(role string) []string {
	role = strings.ToLower(role)
	if role == "user" {
		role = "developer"
	}
	if def, ok := DefaultRoles[role]; ok {
		return def.Permissions
	}
	return nil
}
