package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tunehive.app/backend/internal/gateway"
	"tunehive.app/backend/internal/service"
	"tunehive.app/backend/pkg/response"
)

type NotificationHandler struct {
	service service.NotificationService
	gateway *gateway.Gateway
}

func NewNotificationHandler(service service.NotificationService, gw *gateway.Gateway) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		gateway: gw,
	}
}

// GetNotifications returns one page of the caller's notifications, newest
// first, with pagination metadata.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	notifications, err := h.service.GetUserNotifications(c.Request.Context(), userID.Hex(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	count, err := h.service.GetUnreadCount(c.Request.Context(), userID.Hex())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), c.Param("id"), userID.Hex()); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.MarkAllAsRead(c.Request.Context(), userID.Hex()); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.DeleteNotification(c.Request.Context(), c.Param("id"), userID.Hex()); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}

// OnlineCount reports how many users currently hold at least one live
// connection.
func (h *NotificationHandler) OnlineCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"onlineUsers": h.gateway.OnlineUsersCount()})
}
