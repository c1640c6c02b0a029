// Package responses defines the uniform JSON envelope every endpoint writes.
// The client SDK decodes exactly this shape.
package responses

import "github.com/gin-gonic/gin"

const (
	statusSuccess = "success"
	statusError   = "error"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSON writes an envelope with full control over every field. Most handlers
// use Success or Fail instead.
func JSON(c *gin.Context, statusCode int, status string, data interface{}, message string, err error) {
	resp := APIResponse{
		Status:  status,
		Message: message,
		Data:    data,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	JSON(c, statusCode, statusSuccess, data, message, nil)
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	JSON(c, statusCode, statusError, nil, message, err)
}
