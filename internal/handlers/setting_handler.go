package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type SettingHandler struct {
	settingService *services.SettingService
}

func NewSettingHandler(settingService *services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

func (h *SettingHandler) List(c *gin.Context) {
	settings, err := h.settingService.List()
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load settings")
		return
	}
	responses.Success(c, http.StatusOK, settings, "")
}

func (h *SettingHandler) Set(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		Key   string `json:"key"   binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	if err := h.settingService.Set(user, req.Key, req.Value); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not save setting")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Setting saved")
}
