package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"dblens/internal/logging"
	"dblens/internal/responses"
)

// ErrorHandling turns errors attached to the gin context into the standard
// response envelope. Binding failures from the validator become 422s with a
// per-field message.
func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if verrs, ok := err.(validator.ValidationErrors); ok {
			responses.JSON(c, http.StatusUnprocessableEntity, "error", nil, ValidationMessage(verrs), nil)
			return
		}

		logging.Log.WithError(err).WithField("path", c.FullPath()).Error("unhandled request error")
		responses.Fail(c, http.StatusInternalServerError, err, "Internal server error")
	}
}

// ValidationMessage flattens validator errors into one readable line,
// "field: rule" pairs joined by "; ".
func ValidationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+": this field is required")
		case "email":
			parts = append(parts, field+": must be a valid email address")
		case "min":
			parts = append(parts, fmt.Sprintf("%s: must be at least %s characters", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s: must be at most %s characters", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s: failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
