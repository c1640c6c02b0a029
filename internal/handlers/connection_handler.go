package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dblens/internal/middlewares"
	"dblens/internal/responses"
	"dblens/internal/services"
)

type ConnectionHandler struct {
	connService *services.ConnectionService
}

func NewConnectionHandler(connService *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connService: connService}
}

type connectionRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=100"`
	Type         string `json:"type"          binding:"required"`
	Host         string `json:"host"`
	Port         int    `json:"port"          binding:"gte=0,lte=65535"`
	DatabaseName string `json:"database_name"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	SSLMode      string `json:"ssl_mode"`
	FilePath     string `json:"file_path"`
}

func (r connectionRequest) toInput() services.ConnectionInput {
	return services.ConnectionInput{
		Name:         r.Name,
		Type:         r.Type,
		Host:         r.Host,
		Port:         r.Port,
		DatabaseName: r.DatabaseName,
		Username:     r.Username,
		Password:     r.Password,
		SSLMode:      r.SSLMode,
		FilePath:     r.FilePath,
	}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	connections, err := h.connService.List(middlewares.OrganizationID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list connections")
		return
	}
	responses.Success(c, http.StatusOK, connections, "")
}

func (h *ConnectionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	conn, err := h.connService.Get(id)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Connection not found")
		return
	}
	responses.Success(c, http.StatusOK, conn, "")
}

func (h *ConnectionHandler) Create(c *gin.Context) {
	actor, ok := middlewares.CurrentUser(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	conn, err := h.connService.Create(actor, middlewares.OrganizationID(c), req.toInput())
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not create connection")
		return
	}
	responses.Success(c, http.StatusCreated, conn, "Connection created")
}

func (h *ConnectionHandler) Update(c *gin.Context) {
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
		Type         string `json:"type"`
		Host         string `json:"host"`
		Port         int    `json:"port" binding:"gte=0,lte=65535"`
		DatabaseName string `json:"database_name"`
		Username     string `json:"username"`
		Password     string `json:"password"`
		SSLMode      string `json:"ssl_mode"`
		FilePath     string `json:"file_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}

	conn, err := h.connService.Update(actor, id, services.ConnectionInput{
		Name:         req.Name,
		Type:         req.Type,
		Host:         req.Host,
		Port:         req.Port,
		DatabaseName: req.DatabaseName,
		Username:     req.Username,
		Password:     req.Password,
		SSLMode:      req.SSLMode,
		FilePath:     req.FilePath,
	})
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not update connection")
		return
	}
	responses.Success(c, http.StatusOK, conn, "Connection updated")
}

func (h *ConnectionHandler) Delete(c *gin.Context) {
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
	if err := h.connService.Delete(actor, id); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not delete connection")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Connection deleted")
}

func (h *ConnectionHandler) Test(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid connection id")
		return
	}
	result, err := h.connService.Test(c.Request.Context(), id)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Connection test failed")
		return
	}
	responses.Success(c, http.StatusOK, result, "")
}
