package handler

import (
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the caller's inbox, newest first. ?unread=true keeps unread items only.
func (h *NotificationHandler) List(c *gin.Context) {
	unread, err := queryBool(c, "unread")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	p := page(c)
	items, total, err := h.notificationService.List(c.Request.Context(), actorFrom(c).UserID, unread != nil && *unread, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, items, utils.BuildMeta(total, p))
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id", "notification")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), actorFrom(c).UserID, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"updated": n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "notification")
	if !ok {
		return
	}
	if err := h.notificationService.Delete(c.Request.Context(), actorFrom(c).UserID, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Notification deleted")
}
