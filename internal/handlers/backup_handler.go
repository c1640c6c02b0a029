package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type BackupHandler struct {
	backupService   *services.BackupService
	scheduleService *services.ScheduleService
}

func NewBackupHandler(backupService *services.BackupService, scheduleService *services.ScheduleService) *BackupHandler {
	return &BackupHandler{backupService: backupService, scheduleService: scheduleService}
}

func (h *BackupHandler) List(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	backups, err := h.backupService.List(id)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list backups")
		return
	}
	responses.Success(c, http.StatusOK, backups, "")
}

func (h *BackupHandler) Create(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}

	var req struct {
		Name       string `json:"name"`
		BackupType string `json:"backup_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	backup, err := h.backupService.Create(actor.Username, id, req.Name, req.BackupType)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not start backup")
		return
	}
	responses.Success(c, http.StatusAccepted, backup, "Backup started")
}

func (h *BackupHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("backupId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid backup id")
		return
	}
	backup, err := h.backupService.Get(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Backup not found")
		return
	}
	responses.Success(c, http.StatusOK, backup, "")
}

func (h *BackupHandler) Restore(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("backupId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid backup id")
		return
	}
	applied, err := h.backupService.Restore(c.Request.Context(), actor.Username, id)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Restore failed")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"statements_applied": applied}, "Backup restored")
}

func (h *BackupHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("backupId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid backup id")
		return
	}
	path, filename, err := h.backupService.FilePath(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Backup file not available")
		return
	}
	c.FileAttachment(path, filename)
}

func (h *BackupHandler) Delete(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("backupId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid backup id")
		return
	}
	if err := h.backupService.Delete(actor.Username, id); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not delete backup")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Backup deleted")
}

func (h *BackupHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.scheduleService.List()
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list schedules")
		return
	}
	responses.Success(c, http.StatusOK, schedules, "")
}

func (h *BackupHandler) CreateSchedule(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		ConnectionID  uuid.UUID `json:"connection_id"  binding:"required"`
		Name          string    `json:"name"           binding:"required"`
		BackupType    string    `json:"backup_type"`
		IntervalHours int       `json:"interval_hours" binding:"required,gte=1,lte=720"`
		RetentionDays int       `json:"retention_days" binding:"gte=0,lte=365"`
		Enabled       *bool     `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	schedule, err := h.scheduleService.Create(actor.Username, services.ScheduleInput{
		ConnectionID:  req.ConnectionID,
		Name:          req.Name,
		BackupType:    req.BackupType,
		IntervalHours: req.IntervalHours,
		RetentionDays: req.RetentionDays,
		Enabled:       req.Enabled,
	})
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not create schedule")
		return
	}
	responses.Success(c, http.StatusCreated, schedule, "Schedule created")
}

func (h *BackupHandler) UpdateSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("scheduleId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid schedule id")
		return
	}

	var req struct {
		Name          string `json:"name"`
		BackupType    string `json:"backup_type"`
		IntervalHours int    `json:"interval_hours" binding:"gte=0,lte=720"`
		RetentionDays int    `json:"retention_days" binding:"gte=0,lte=365"`
		Enabled       *bool  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	schedule, err := h.scheduleService.Update(id, services.ScheduleInput{
		Name:          req.Name,
		BackupType:    req.BackupType,
		IntervalHours: req.IntervalHours,
		RetentionDays: req.RetentionDays,
		Enabled:       req.Enabled,
	})
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not update schedule")
		return
	}
	responses.Success(c, http.StatusOK, schedule, "Schedule updated")
}

func (h *BackupHandler) DeleteSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("scheduleId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid schedule id")
		return
	}
	if err := h.scheduleService.Delete(id); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not delete schedule")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Schedule deleted")
}
