package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, total, err := h.userService.List(limit, offset)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list users")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"users": users, "total": total}, "")
}

func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Missing search query")
		return
	}
	users, err := h.userService.Search(query, 20)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Search failed")
		return
	}
	responses.Success(c, http.StatusOK, users, "")
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid user id")
		return
	}
	user, err := h.userService.Get(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "User not found")
		return
	}
	responses.Success(c, http.StatusOK, user, "")
}

func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role"     binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	user, err := h.userService.Create(actor, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not create user")
		return
	}
	responses.Success(c, http.StatusCreated, user, "User created")
}

func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid user id")
		return
	}

	var req struct {
		Email    *string `json:"email"     binding:"omitempty,email"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	user, err := h.userService.Update(actor, id, services.UserUpdate{
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not update user")
		return
	}
	responses.Success(c, http.StatusOK, user, "User updated")
}

func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid user id")
		return
	}
	if err := h.userService.Delete(actor, id); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not delete user")
		return
	}
	responses.Success(c, http.StatusOK, nil, "User deleted")
}
