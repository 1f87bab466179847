package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	notificationapp "github.com/storefront/backend/internal/application/notification"
)

// NotificationHandler exposes the notification feed
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.Service
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *notificationapp.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns a recipient's notifications, optionally unread only
func (h *NotificationHandler) List(c *gin.Context) {
	recipient, err := uuid.Parse(c.Query("recipient"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing recipient")
		return
	}
	unreadOnly := c.Query("unread") == "true"

	resp, err := h.notificationService.List(c.Request.Context(), recipient, unreadOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid notification ID format")
		return
	}

	resp, err := h.notificationService.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MarkAllRead marks every unread notification for a recipient as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	recipient, err := uuid.Parse(c.Query("recipient"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing recipient")
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), recipient); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
	}
}
