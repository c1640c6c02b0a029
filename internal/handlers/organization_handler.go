package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type OrganizationHandler struct {
	orgService *services.OrganizationService
}

func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) List(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	orgs, err := h.orgService.ListForUser(user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list organizations")
		return
	}
	responses.Success(c, http.StatusOK, orgs, "")
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=100"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	org, err := h.orgService.Create(user, req.Name, req.Description)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not create organization")
		return
	}
	responses.Success(c, http.StatusCreated, org, "Organization created")
}

func (h *OrganizationHandler) Members(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid organization id")
		return
	}
	members, err := h.orgService.Members(id)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list members")
		return
	}
	responses.Success(c, http.StatusOK, members, "")
}

func (h *OrganizationHandler) AddMember(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid organization id")
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		Role   string    `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	if err := h.orgService.AddMember(user, id, req.UserID, req.Role); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not add member")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Member added")
}
