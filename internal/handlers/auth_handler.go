package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
	"dblens/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) SetupRequired(c *gin.Context) {
	required, err := h.authService.SetupRequired()
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not check setup state")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"setup_required": required}, "")
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Please provide username, email and password correctly")
		return
	}

	pair, err := h.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not register user")
		return
	}

	responses.Success(c, http.StatusCreated, pair, "New user registered successfully!")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	pair, err := h.authService.Login(req.Username, req.Password, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, services.ErrAccountLocked) {
			status = http.StatusLocked
		}
		responses.Fail(c, status, err, "Failed to login")
		return
	}

	responses.Success(c, http.StatusOK, pair, "Logged in successfully!")
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Missing refresh token")
		return
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		responses.Fail(c, http.StatusUnauthorized, err, "Could not refresh session")
		return
	}
	responses.Success(c, http.StatusOK, pair, "Token refreshed")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	v, ok := c.Get(middlewares.ContextClaimsKey)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	claims := v.(*utils.Claims)
	if err := h.authService.Logout(claims); err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not log out")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Logged out")
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	responses.Success(c, http.StatusOK, user, "")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password"     binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	if err := h.authService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not change password")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Password changed. Please log in again.")
}

func (h *AuthHandler) Sessions(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	sessions, err := h.authService.Sessions(user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list sessions")
		return
	}
	responses.Success(c, http.StatusOK, sessions, "")
}

func (h *AuthHandler) RevokeSession(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid session id")
		return
	}
	if err := h.authService.RevokeSession(user.ID, sessionID); err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Could not revoke session")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Session revoked")
}

func (h *AuthHandler) RevokeAllSessions(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	if err := h.authService.RevokeAllSessions(user.ID); err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not revoke sessions")
		return
	}
	responses.Success(c, http.StatusOK, nil, "All sessions revoked")
}
