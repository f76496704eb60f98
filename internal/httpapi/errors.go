package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"classattend/internal/core"
)

// fail maps the core taxonomy onto HTTP. Storage and unknown errors are logged and never leaked.
func (h *handler) fail(c *gin.Context, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Error()}
		if len(ve.Fields) > 0 {
			fields := make(map[string]string, len(ve.Fields))
			for _, f := range ve.Fields {
				fields[f.Field] = f.Error
			}
			body["fields"] = fields
		}
		c.JSON(http.StatusBadRequest, body)
	case core.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.log.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Bool("storage", core.IsStorage(err)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}

// bindError reports malformed bodies and binding-tag failures as 400s.
func (h *handler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
