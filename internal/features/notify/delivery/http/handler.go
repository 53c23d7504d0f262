package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/middleware"
	"beamr-points-backend/internal/features/notify/models"
	"beamr-points-backend/internal/features/notify/service"
)

type NotifyHandler struct {
	notify service.NotifyService
}

func NewNotifyHandler(notify service.NotifyService) *NotifyHandler {
	return &NotifyHandler{notify: notify}
}

func (h *NotifyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/notify", h.send)
}

// @Summary Send a frame notification
// @Description Forwards a notification to the client-supplied endpoint. Guarded by a shared secret in the body.
// @Tags notify
// @Accept json
// @Produce json
// @Param body body models.NotifyRequest true "Notification content and target"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Invalid secret"
// @Failure 502 {object} map[string]string "Delivery failed"
// @Router /notify [post]
func (h *NotifyHandler) send(c *gin.Context) {
	var req models.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	if err := h.notify.Send(c.Request.Context(), req); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
