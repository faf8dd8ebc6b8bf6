package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gauravghatol/CREA-Final-sub001/models"
	"github.com/gauravghatol/CREA-Final-sub001/services"
)

type Inbox interface {
	List(ctx context.Context, f services.NotificationFilter) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id string) (bool, error)
	MarkAllRead(ctx context.Context) (int64, error)
}

type NotificationController struct {
	inbox  Inbox
	logger *slog.Logger
}

func NewNotificationController(inbox Inbox, logger *slog.Logger) *NotificationController {
	return &NotificationController{inbox: inbox, logger: logger}
}

// GET /admin/notifications?action=&orderId=&unread=&limit=
func (nc *NotificationController) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	unread, _ := strconv.ParseBool(c.Query("unread"))

	list, err := nc.inbox.List(c.Request.Context(), services.NotificationFilter{
		Action:     c.Query("action"),
		OrderID:    c.Query("orderId"),
		UnreadOnly: unread,
		Limit:      limit,
	})
	if err != nil {
		respondError(c, nc.logger, err)
		return
	}

	count, err := nc.inbox.UnreadCount(c.Request.Context())
	if err != nil {
		respondError(c, nc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count, "notifications": list})
}

// PUT /admin/notifications/:id/read
func (nc *NotificationController) MarkRead(c *gin.Context) {
	ok, err := nc.inbox.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, nc.logger, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// PUT /admin/notifications/read-all
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	n, err := nc.inbox.MarkAllRead(c.Request.Context())
	if err != nil {
		respondError(c, nc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
