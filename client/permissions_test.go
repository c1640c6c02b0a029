package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permissionsServer(t *testing.T, payload UserPermissions, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/roles/my-permissions" {
			writeError(w, http.StatusNotFound, "not found", "")
			return
		}
		if status >= 400 {
			writeError(w, status, "permissions unavailable", "")
			return
		}
		writeEnvelope(w, http.StatusOK, payload)
	}))
}

func TestPermissionsPermissiveBeforeLoad(t *testing.T) {
	c := New("http://unused.invalid")
	perms := NewPermissions(c, time.Minute)

	// Unauthenticated sessions see public routes, so checks pass.
	assert.True(t, perms.Has("connections.view"))

	// Authenticated but not yet loaded: still permissive to avoid
	// flicker-denying while the fetch is in flight.
	c.Store().Set(KeyAccessToken, "tok")
	assert.True(t, perms.Has("connections.view"))
	assert.True(t, perms.Has("anything.at.all"))

	// Role management is the exception: never allowed before load.
	assert.False(t, perms.CanManageRole("viewer"))
}

func TestPermissionsEnforcedAfterLoad(t *testing.T) {
	srv := permissionsServer(t, UserPermissions{
		Permissions:  []string{"connections.view", "query.execute"},
		HighestRole:  "developer",
		HighestLevel: 60,
	}, http.StatusOK)
	defer srv.Close()

	c := New(srv.URL)
	c.Store().Set(KeyAccessToken, "tok")
	perms := NewPermissions(c, time.Minute)
	require.NoError(t, perms.Load(context.Background()))

	assert.True(t, perms.Has("connections.view"))
	assert.False(t, perms.Has("connections.delete"))
	assert.True(t, perms.HasAny("connections.delete", "query.execute"))
	assert.False(t, perms.HasAll("connections.view", "connections.delete"))
	assert.True(t, perms.HasAll("connections.view", "query.execute"))
}

func TestPermissionsSuperAdminShortCircuit(t *testing.T) {
	srv := permissionsServer(t, UserPermissions{
		Permissions:  []string{"dashboard.view"},
		HighestRole:  "super_admin",
		HighestLevel: 100,
		IsSuperAdmin: true,
	}, http.StatusOK)
	defer srv.Close()

	c := New(srv.URL)
	c.Store().Set(KeyAccessToken, "tok")
	perms := NewPermissions(c, time.Minute)
	require.NoError(t, perms.Load(context.Background()))

	assert.True(t, perms.Has("anything.not.in.the.set"))
	assert.True(t, perms.HasAll("a.b", "c.d", "e.f"))
	assert.True(t, perms.CanManageRole("super_admin"))
}

func TestPermissionsCanManageRole(t *testing.T) {
	srv := permissionsServer(t, UserPermissions{
		Permissions:  []string{"admin.roles"},
		HighestRole:  "admin",
		HighestLevel: 80,
		IsAdmin:      true,
	}, http.StatusOK)
	defer srv.Close()

	c := New(srv.URL)
	c.Store().Set(KeyAccessToken, "tok")
	perms := NewPermissions(c, time.Minute)
	require.NoError(t, perms.Load(context.Background()))

	// Admins manage every role except super_admin.
	assert.True(t, perms.CanManageRole("admin"))
	assert.True(t, perms.CanManageRole("developer"))
	assert.True(t, perms.CanManageRole("viewer"))
	assert.False(t, perms.CanManageRole("super_admin"))
}

func TestPermissionsFallbackOnFetchFailure(t *testing.T) {
	srv := permissionsServer(t, UserPermissions{}, http.StatusInternalServerError)
	defer srv.Close()

	c := New(srv.URL)
	c.Store().Set(KeyAccessToken, "tok")
	perms := NewPermissions(c, time.Minute)

	err := perms.Load(context.Background())
	require.Error(t, err)

	// The baseline keeps the read paths usable.
	assert.True(t, perms.Has("connections.view"))
	assert.True(t, perms.Has("query.execute"))
	assert.False(t, perms.Has("admin.roles"))
	assert.False(t, perms.Has("users.delete"))
}

func TestPermissionsSubscribeAndReset(t *testing.T) {
	srv := permissionsServer(t, UserPermissions{
		Permissions:  []string{"connections.view"},
		HighestRole:  "viewer",
		HighestLevel: 20,
	}, http.StatusOK)
	defer srv.Close()

	c := New(srv.URL)
	c.Store().Set(KeyAccessToken, "tok")
	perms := NewPermissions(c, time.Minute)

	fired := 0
	perms.Subscribe(func() { fired++ })

	require.NoError(t, perms.Load(context.Background()))
	assert.Equal(t, 1, fired)

	perms.Reset()
	assert.Equal(t, 2, fired)
	assert.Nil(t, perms.Info())
	assert.True(t, perms.Has("anything"), "reset returns to the permissive pre-load state")
}

func TestPermissionsLoadUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeEnvelope(w, http.StatusOK, UserPermissions{Permissions: []string{"dashboard.view"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Store().Set(KeyAccessToken, "tok")
	perms := NewPermissions(c, time.Minute)

	require.NoError(t, perms.Load(context.Background()))
	require.NoError(t, perms.Load(context.Background()))
	assert.Equal(t, 1, calls)

	require.NoError(t, perms.Refresh(context.Background()))
	assert.Equal(t, 2, calls)
}
