package handler

import (
	"net/http"

	"cakeshop-backend/internal/features/notifications/ports"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler exposes connection counts for the store dashboard.
type NotificationHandler struct {
	notifier ports.OrderNotifier
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifier ports.OrderNotifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// SessionsResponse reports how many realtime sessions are connected.
type SessionsResponse struct {
	AdminSessions int `json:"adminSessions"`
	UserSessions  int `json:"userSessions"`
}

// GetSessions godoc
// @Summary Connected session counts
// @Description Returns the number of admin and customer realtime sessions currently connected.
// @Tags notifications
// @Produce json
// @Success 200 {object} SessionsResponse
// @Router /notifications/sessions [get]
func (h *NotificationHandler) GetSessions(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(SessionsResponse{
		AdminSessions: h.notifier.ConnectedAdminCount(c.Context()),
		UserSessions:  h.notifier.ConnectedUserCount(c.Context()),
	})
}
