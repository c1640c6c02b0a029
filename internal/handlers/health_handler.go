package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/responses"
	"dblens/internal/services"
)

type HealthHandler struct {
	healthService *services.HealthService
}

func NewHealthHandler(healthService *services.HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// Current samples the connection right now and returns the fresh metric.
func (h *HealthHandler) Current(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	metric, err := h.healthService.Collect(c.Request.Context(), id)
	if err != nil {
		responses.Fail(c, http.StatusBadGateway, err, "Could not collect metrics")
		return
	}
	responses.Success(c, http.StatusOK, metric, "")
}

func (h *HealthHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	metrics, err := h.healthService.History(id, time.Duration(hours)*time.Hour, limit)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load metric history")
		return
	}
	responses.Success(c, http.StatusOK, metrics, "")
}

func (h *HealthHandler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))

	stats, err := h.healthService.Stats(id, time.Duration(hours)*time.Hour)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not compute metric stats")
		return
	}
	responses.Success(c, http.StatusOK, stats, "")
}
