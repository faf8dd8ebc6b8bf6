package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

// NotificationInbox is the admin view over stored in-app notifications.
type NotificationInbox struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewNotificationInbox(db *gorm.DB) *NotificationInbox {
	return &NotificationInbox{db: db, clock: time.Now}
}

type NotificationFilter struct {
	Action     string
	OrderID    string
	UnreadOnly bool
	Limit      int
}

func (in *NotificationInbox) List(ctx context.Context, f NotificationFilter) ([]models.Notification, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	q := in.db.WithContext(ctx).Model(&models.Notification{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.OrderID != "" {
		q = q.Where("order_id = ?", f.OrderID)
	}
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var list []models.Notification
	err := q.Order("created_at DESC").Limit(f.Limit).Find(&list).Error
	return list, err
}

func (in *NotificationInbox) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	err := in.db.WithContext(ctx).Model(&models.Notification{}).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}

// MarkRead reports false when no notification has that id.
func (in *NotificationInbox) MarkRead(ctx context.Context, id string) (bool, error) {
	now := in.clock()
	res := in.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	return res.RowsAffected > 0, res.Error
}

func (in *NotificationInbox) MarkAllRead(ctx context.Context) (int64, error) {
	now := in.clock()
	res := in.db.WithContext(ctx).Model(&models.Notification{}).
		Where("is_read = ?", false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	return res.RowsAffected, res.Error
}
