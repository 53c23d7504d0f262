package middleware

import (
	"net/http"
	"runtime/debug"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns panics into INTERNAL_ERROR responses.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  errors.ErrCodeInternal,
		})
	})
}

// RespondError writes a typed error response. Unknown errors are reported as
// internal without leaking their message.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logger.Error().Err(appErr).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("Request failed")
		}
		c.AbortWithStatusJSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
		"code":  errors.ErrCodeInternal,
	})
}
