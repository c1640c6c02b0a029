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

type MigrationHandler struct {
	migrationService *services.MigrationService
}

func NewMigrationHandler(migrationService *services.MigrationService) *MigrationHandler {
	return &MigrationHandler{migrationService: migrationService}
}

func (h *MigrationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	migrations, err := h.migrationService.List(limit)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list migrations")
		return
	}
	responses.Success(c, http.StatusOK, migrations, "")
}

func (h *MigrationHandler) Start(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		SourceConnectionID uuid.UUID `json:"source_connection_id" binding:"required"`
		TargetConnectionID uuid.UUID `json:"target_connection_id" binding:"required"`
		Name               string    `json:"name"`
		SelectedTables     []string  `json:"selected_tables"`
		MigrationType      string    `json:"migration_type"`
		SkipSnapshot       bool      `json:"skip_snapshot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	migration, err := h.migrationService.Start(actor.Username, services.MigrationInput{
		SourceConnectionID: req.SourceConnectionID,
		TargetConnectionID: req.TargetConnectionID,
		Name:               req.Name,
		SelectedTables:     req.SelectedTables,
		MigrationType:      req.MigrationType,
		SkipSnapshot:       req.SkipSnapshot,
	})
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not start migration")
		return
	}
	responses.Success(c, http.StatusAccepted, migration, "Migration started")
}

func (h *MigrationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid migration id")
		return
	}
	migration, err := h.migrationService.Get(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Migration not found")
		return
	}
	responses.Success(c, http.StatusOK, migration, "")
}

func (h *MigrationHandler) Logs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid migration id")
		return
	}
	logs, err := h.migrationService.Logs(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Migration not found")
		return
	}
	responses.Success(c, http.StatusOK, logs, "")
}

func (h *MigrationHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid migration id")
		return
	}
	if err := h.migrationService.Cancel(id); err != nil {
		responses.Fail(c, http.StatusConflict, err, "Could not cancel migration")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Cancellation requested")
}

func (h *MigrationHandler) Rollback(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid migration id")
		return
	}
	if err := h.migrationService.Rollback(c.Request.Context(), actor.Username, id); err != nil {
		responses.Fail(c, http.StatusConflict, err, "Could not roll back migration")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Migration rolled back")
}
