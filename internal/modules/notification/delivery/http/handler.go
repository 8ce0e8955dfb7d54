package handler

import (
	"log"
	"net/http"

	notification "sociafy/internal/modules/notification/service"
	pkgdto "sociafy/pkg/dto"
	"sociafy/pkg/response"
	"sociafy/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type NotificationHandler struct {
	service notification.NotificationService
	rdb     *redis.Client
}

func NewNotificationHandler(service notification.NotificationService, rdb *redis.Client) *NotificationHandler {
	return &NotificationHandler{service: service, rdb: rdb}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter pkgdto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pagination parameters"})
		return
	}

	notifications, meta, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKWithMeta(c, "Notifications retrieved successfully", notifications, meta)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid notification id"})
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "All notifications marked as read", nil)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Unread count retrieved successfully", gin.H{"unread_count": count})
}

// HandleWebSocket bridges the user's redis notification channel onto a
// WebSocket. The client authenticates with the usual token (header or query
// parameter) before the upgrade.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "live notifications are not available"})
		return
	}

	conn, err := ws.Upgrade(c)
	if err != nil {
		log.Printf("websocket upgrade failed for %s: %v", userID, err)
		return
	}

	ws.ServePubSub(conn, h.rdb, notification.ChannelFor(userID))
}
