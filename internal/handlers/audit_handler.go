package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/repositories"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func filterFromQuery(c *gin.Context) repositories.AuditFilter {
	filter := repositories.AuditFilter{
		PerformedBy:  c.Query("performed_by"),
		ActionType:   c.Query("action_type"),
		ResourceType: c.Query("resource_type"),
	}
	if raw := c.Query("connection_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.ConnectionID = &id
		}
	}
	if raw := c.Query("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Since = t
		}
	}
	if raw := c.Query("until"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Until = t
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))
	return filter
}

func (h *AuditHandler) List(c *gin.Context) {
	logs, total, err := h.auditService.List(filterFromQuery(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list audit logs")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"logs": logs, "total": total}, "")
}

func (h *AuditHandler) Stats(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	stats, err := h.auditService.Stats(time.Duration(hours) * time.Hour)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not compute audit stats")
		return
	}
	responses.Success(c, http.StatusOK, stats, "")
}

func (h *AuditHandler) Export(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="audit-log.csv"`)
	if err := h.auditService.ExportCSV(filterFromQuery(c), c.Writer); err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Export failed")
	}
}
