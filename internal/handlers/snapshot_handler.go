package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type SnapshotHandler struct {
	snapshotService *services.SnapshotService
}

func NewSnapshotHandler(snapshotService *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: snapshotService}
}

func (h *SnapshotHandler) List(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	snapshots, err := h.snapshotService.List(id)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list snapshots")
		return
	}
	responses.Success(c, http.StatusOK, snapshots, "")
}

func (h *SnapshotHandler) Create(c *gin.Context) {
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
		Name         string `json:"name"`
		SnapshotType string `json:"snapshot_type"`
		Description  string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	snapshot, err := h.snapshotService.Create(actor.Username, id, req.Name, req.SnapshotType, req.Description)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not start snapshot")
		return
	}
	responses.Success(c, http.StatusAccepted, snapshot, "Snapshot started")
}

func (h *SnapshotHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("snapshotId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid snapshot id")
		return
	}
	snapshot, err := h.snapshotService.Get(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Snapshot not found")
		return
	}
	responses.Success(c, http.StatusOK, snapshot, "")
}

func (h *SnapshotHandler) Schema(c *gin.Context) {
	id, err := uuid.Parse(c.Param("snapshotId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid snapshot id")
		return
	}
	schema, err := h.snapshotService.SchemaOf(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Snapshot schema not available")
		return
	}
	responses.Success(c, http.StatusOK, schema, "")
}

func (h *SnapshotHandler) Restore(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("snapshotId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid snapshot id")
		return
	}
	applied, err := h.snapshotService.Restore(c.Request.Context(), actor.Username, id)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Restore failed")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"statements_applied": applied}, "Snapshot restored")
}

// Compare diffs two snapshots of the same connection.
func (h *SnapshotHandler) Compare(c *gin.Context) {
	baseID, err := uuid.Parse(c.Param("snapshotId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid snapshot id")
		return
	}
	otherID, err := uuid.Parse(c.Query("other"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Missing or invalid other snapshot id")
		return
	}

	diff, err := h.snapshotService.Compare(baseID, otherID)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not compare snapshots")
		return
	}
	responses.Success(c, http.StatusOK, diff, "")
}

func (h *SnapshotHandler) Delete(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("snapshotId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid snapshot id")
		return
	}
	if err := h.snapshotService.Delete(actor.Username, id); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not delete snapshot")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Snapshot deleted")
}
