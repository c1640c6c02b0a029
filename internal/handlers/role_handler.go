package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type RoleHandler struct {
	roleService *services.RoleService
}

func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// MyPermissions returns the caller's effective permission set. The frontend
// and the SDK permission evaluator bootstrap from this payload.
func (h *RoleHandler) MyPermissions(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	perms, err := h.roleService.PermissionsFor(user)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not resolve permissions")
		return
	}
	responses.Success(c, http.StatusOK, perms, "")
}

func (h *RoleHandler) Catalog(c *gin.Context) {
	responses.Success(c, http.StatusOK, gin.H{
		"permissions": h.roleService.Catalog(),
		"categories":  h.roleService.Categories(),
	}, "")
}

func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roleService.List()
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list roles")
		return
	}
	responses.Success(c, http.StatusOK, roles, "")
}

func (h *RoleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid role id")
		return
	}
	role, err := h.roleService.Get(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Role not found")
		return
	}
	responses.Success(c, http.StatusOK, role, "")
}

func (h *RoleHandler) Create(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		Name        string   `json:"name"         binding:"required,min=2,max=50"`
		DisplayName string   `json:"display_name" binding:"required"`
		Description string   `json:"description"`
		Level       int      `json:"level"        binding:"gte=0,lte=99"`
		Permissions []string `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	role, err := h.roleService.Create(actor, req.Name, req.DisplayName, req.Description, req.Level, req.Permissions)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not create role")
		return
	}
	responses.Success(c, http.StatusCreated, role, "Role created")
}

func (h *RoleHandler) Update(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid role id")
		return
	}

	var req struct {
		DisplayName *string  `json:"display_name"`
		Description *string  `json:"description"`
		Permissions []string `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	role, err := h.roleService.Update(actor, id, req.DisplayName, req.Description, req.Permissions)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not update role")
		return
	}
	responses.Success(c, http.StatusOK, role, "Role updated")
}

func (h *RoleHandler) Delete(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid role id")
		return
	}
	if err := h.roleService.Delete(actor, id); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not delete role")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Role deleted")
}

func (h *RoleHandler) Assign(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		RoleID uuid.UUID `json:"role_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	if err := h.roleService.Assign(actor, req.UserID, req.RoleID); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not assign role")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Role assigned")
}

func (h *RoleHandler) Unassign(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		RoleID uuid.UUID `json:"role_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	if err := h.roleService.Unassign(actor, req.UserID, req.RoleID); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not remove role")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Role removed")
}
