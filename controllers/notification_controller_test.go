package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauravghatol/CREA-Final-sub001/models"
	"github.com/gauravghatol/CREA-Final-sub001/services"
)

func notificationRouter(inbox *fakeInbox) *gin.Engine {
	nc := NewNotificationController(inbox, quietLogger())
	r := gin.New()
	r.GET("/admin/notifications", nc.ListNotifications)
	r.PUT("/admin/notifications/read-all", nc.MarkAllRead)
	r.PUT("/admin/notifications/:id/read", nc.MarkRead)
	return r
}

func TestListNotifications(t *testing.T) {
	inbox := &fakeInbox{
		unread: 3,
		ListFn: func(context.Context, services.NotificationFilter) ([]models.Notification, error) {
			return []models.Notification{{ID: "n-1", Subject: "Receipt"}}, nil
		},
	}

	w := serve(notificationRouter(inbox), http.MethodGet, "/admin/notifications?action=renewal_reminder&orderId=rec-1&unread=true&limit=5", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.NotificationFilter{Action: "renewal_reminder", OrderID: "rec-1", UnreadOnly: true, Limit: 5}, inbox.lastFilter)
	body := decode(t, w)
	assert.EqualValues(t, 3, body["unread"])
	assert.Len(t, body["notifications"], 1)
}

func TestListNotificationsError(t *testing.T) {
	inbox := &fakeInbox{ListFn: func(context.Context, services.NotificationFilter) ([]models.Notification, error) {
		return nil, errors.New("db down")
	}}
	w := serve(notificationRouter(inbox), http.MethodGet, "/admin/notifications", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMarkNotificationsRead(t *testing.T) {
	inbox := &fakeInbox{markRead: map[string]bool{"n-1": true}, markedAll: 4}
	r := notificationRouter(inbox)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPut, "/admin/notifications/n-1/read", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPut, "/admin/notifications/n-2/read", "").Code)

	w := serve(r, http.MethodPut, "/admin/notifications/read-all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, decode(t, w)["updated"])
}
