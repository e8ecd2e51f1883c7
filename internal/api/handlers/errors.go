package handlers

import (
	"uploader/internal/apperr"
	"uploader/internal/logger"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		log.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	body := gin.H{"error": err.Error()}
	if e, ok := apperr.As(err); ok {
		body["kind"] = e.Kind
	}
	c.JSON(status, body)
}
