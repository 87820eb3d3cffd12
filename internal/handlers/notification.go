package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the latest notifications
// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notificationService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, list)
}

// Send notifies one member, or every member when email is empty
// POST /api/notifications
func (h *NotificationHandler) Send(c *gin.Context) {
	var req services.SendNotificationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.notificationService.Send(c.Request.Context(), middleware.GetSession(c), &req)
	writeBatch(c, result, err)
}

// SendMonthly sends the fee reminder to every member now
// POST /api/notifications/monthly
func (h *NotificationHandler) SendMonthly(c *gin.Context) {
	result, err := h.notificationService.SendMonthlyReminders(c.Request.Context(), middleware.GetSession(c))
	writeBatch(c, result, err)
}

// writeBatch reports a fan-out. A batch where some writes failed is a 207
// carrying every outcome; one where all failed is a 502.
func writeBatch(c *gin.Context, result *services.BroadcastResult, err error) {
	if err == nil {
		response.Created(c, result)
		return
	}
	if result == nil || !errors.Is(err, services.ErrPartialDelivery) {
		writeError(c, err)
		return
	}

	if result.Succeeded == 0 {
		appErr := response.NewBadGateway(err.Error()).WithReason("partial")
		response.Error(c, appErr)
		return
	}
	response.Partial(c, fmt.Sprintf("%d of %d notifications sent", result.Succeeded, result.Total), result)
}

// Delete removes a notification
// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "notification deleted"})
}
