package middleware

import (
	"github.com/gin-gonic/gin"

	"beamr-points-backend/internal/common/errors"
)

// RequireAdmin restricts a route group to the configured admin fids.
func RequireAdmin(adminFIDs []int64) gin.HandlerFunc {
	admins := make(map[int64]bool, len(adminFIDs))
	for _, fid := range adminFIDs {
		admins[fid] = true
	}

	return func(c *gin.Context) {
		fid, ok := FIDFromContext(c)
		if !ok {
			RespondError(c, errors.NewUnauthorizedError("session required"))
			return
		}

		if !admins[fid] {
			RespondError(c, errors.NewForbiddenError("admin access required"))
			return
		}

		c.Next()
	}
}
