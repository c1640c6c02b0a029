package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type QueryHandler struct {
	queryService  *services.QueryService
	schemaService *services.SchemaService
}

func NewQueryHandler(queryService *services.QueryService, schemaService *services.SchemaService) *QueryHandler {
	return &QueryHandler{queryService: queryService, schemaService: schemaService}
}

// Schema returns the cached structure of the target database, the payload
// behind the diagram view.
func (h *QueryHandler) Schema(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	schema, err := h.schemaService.Schema(c.Request.Context(), id)
	if err != nil {
		responses.Fail(c, http.StatusBadGateway, err, "Could not introspect database")
		return
	}
	responses.Success(c, http.StatusOK, schema, "")
}

// Query runs a read-only statement against the connection.
func (h *QueryHandler) Query(c *gin.Context) {
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
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit" binding:"gte=0,lte=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	result, err := h.queryService.Read(c.Request.Context(), actor, id, req.Query, req.Limit)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Query failed")
		return
	}
	responses.Success(c, http.StatusOK, result, "")
}

// Execute runs a write statement. Destructive statements come back with
// requires_confirmation until the caller retries with confirm=true.
func (h *QueryHandler) Execute(c *gin.Context) {
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
		Query   string `json:"query" binding:"required"`
		Confirm bool   `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	result, err := h.queryService.Execute(c.Request.Context(), actor, id, req.Query, req.Confirm)
	if err != nil {
		if errors.Is(err, services.ErrConfirmationRequired) {
			responses.Success(c, http.StatusOK, gin.H{
				"requires_confirmation": true,
				"statement_kind":        services.StatementKind(req.Query),
			}, "This statement is destructive. Repeat the request with confirm=true to run it.")
			return
		}
		responses.Fail(c, http.StatusBadRequest, err, "Statement failed")
		return
	}
	responses.Success(c, http.StatusOK, result, "")
}
