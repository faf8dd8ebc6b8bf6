package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gauravghatol/CREA-Final-sub001/models"
	"gorm.io/gorm"
)

// OrderLedger owns every write to payable_orders. Each mutating method touches
// one field group and is a single conditional UPDATE, never a read-then-save.
type OrderLedger struct {
	db     *gorm.DB
	cache  StatusCache
	logger *slog.Logger
}

func NewOrderLedger(db *gorm.DB, cache StatusCache, logger *slog.Logger) *OrderLedger {
	if cache == nil {
		cache = NoopStatusCache{}
	}
	return &OrderLedger{db: db, cache: cache, logger: logger}
}

// Completion is the field group written by the winning verified transition.
type Completion struct {
	GatewayPaymentID string
	GatewaySignature string
	PaymentMethod    string
	PayerIdentifier  string
	ReceiptNumber    string
	Lifecycle        models.LifecycleStatus
	PaymentDate      time.Time
	ValidFrom        time.Time
	ValidUntil       time.Time
}

type OrderFilter struct {
	Kind          models.Kind
	PaymentStatus models.PaymentStatus
	Limit         int
	Offset        int
}

func (l *OrderLedger) Create(ctx context.Context, order *models.PayableOrder) error {
	return l.db.WithContext(ctx).Create(order).Error
}

func (l *OrderLedger) FindByID(ctx context.Context, id string) (*models.PayableOrder, error) {
	var order models.PayableOrder
	if err := l.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (l *OrderLedger) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PayableOrder, error) {
	var order models.PayableOrder
	if err := l.db.WithContext(ctx).First(&order, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// HasLiveRecord reports whether the identity already has a record that is not failed.
func (l *OrderLedger) HasLiveRecord(ctx context.Context, kind models.Kind, email string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.PayableOrder{}).
		Where("kind = ? AND payer_email = ? AND payment_status <> ?", kind, email, models.PaymentFailed).
		Count(&count).Error
	return count > 0, err
}

func (l *OrderLedger) List(ctx context.Context, f OrderFilter) ([]models.PayableOrder, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	scoped := func() *gorm.DB {
		q := l.db.WithContext(ctx).Model(&models.PayableOrder{})
		if f.Kind != "" {
			q = q.Where("kind = ?", f.Kind)
		}
		if f.PaymentStatus != "" {
			q = q.Where("payment_status = ?", f.PaymentStatus)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.PayableOrder
	err := scoped().Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&orders).Error
	return orders, total, err
}

// StatusCount is one row of the admin summary.
type StatusCount struct {
	Kind          models.Kind          `json:"kind"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Count         int64                `json:"count"`
	Amount        int64                `json:"amount"`
}

func (l *OrderLedger) Stats(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := l.db.WithContext(ctx).
		Model(&models.PayableOrder{}).
		Select("kind, payment_status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("kind, payment_status").
		Order("kind, payment_status").
		Scan(&rows).Error
	return rows, err
}

// AssignGatewayOrder sets gateway_order_id once. False means it was already set
// or the record is no longer pending.
func (l *OrderLedger) AssignGatewayOrder(ctx context.Context, id, gatewayOrderID string) (bool, error) {
	res := l.db.WithContext(ctx).
		Model(&models.PayableOrder{}).
		Where("id = ? AND gateway_order_id IS NULL AND payment_status = ?", id, models.PaymentPending).
		Update("gateway_order_id", gatewayOrderID)
	return l.applied(ctx, id, res)
}

// CompleteIfPending is the compare-and-set that guards the pending -> completed
// transition. Only one caller per record can ever see true.
func (l *OrderLedger) CompleteIfPending(ctx context.Context, id string, c Completion) (bool, error) {
	updates := map[string]interface{}{
		"payment_status":     models.PaymentCompleted,
		"gateway_payment_id": c.GatewayPaymentID,
		"gateway_signature":  c.GatewaySignature,
		"payment_method":     c.PaymentMethod,
		"payer_identifier":   c.PayerIdentifier,
		"receipt_number":     c.ReceiptNumber,
		"lifecycle_status":   c.Lifecycle,
		"payment_date":       c.PaymentDate,
		"valid_from":         c.ValidFrom,
		"valid_until":        c.ValidUntil,
	}
	res := l.db.WithContext(ctx).
		Model(&models.PayableOrder{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentPending).
		Updates(updates)
	return l.applied(ctx, id, res)
}

// FailIfPending moves a pending record to failed through the same guard.
func (l *OrderLedger) FailIfPending(ctx context.Context, id string, lifecycle models.LifecycleStatus, gatewayPaymentID, reason string) (bool, error) {
	updates := map[string]interface{}{
		"payment_status":   models.PaymentFailed,
		"lifecycle_status": lifecycle,
		"failure_reason":   truncate(reason, 255),
	}
	if gatewayPaymentID != "" {
		updates["gateway_payment_id"] = gatewayPaymentID
	}
	res := l.db.WithContext(ctx).
		Model(&models.PayableOrder{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentPending).
		Updates(updates)
	return l.applied(ctx, id, res)
}

func (l *OrderLedger) MarkFulfillmentAttempted(ctx context.Context, id string) (bool, error) {
	res := l.db.WithContext(ctx).
		Model(&models.PayableOrder{}).
		Where("id = ? AND fulfillment_state = ?", id, models.FulfillmentNotAttempted).
		Update("fulfillment_state", models.FulfillmentAttempted)
	return l.applied(ctx, id, res)
}

// ExpiringUnreminded returns completed records of kind whose validity ends in
// [from, to) and that have not been sent a renewal reminder yet.
func (l *OrderLedger) ExpiringUnreminded(ctx context.Context, kind models.Kind, from, to time.Time, limit int) ([]models.PayableOrder, error) {
	var orders []models.PayableOrder
	err := l.db.WithContext(ctx).
		Where("kind = ? AND payment_status = ? AND renewal_reminded_at IS NULL", kind, models.PaymentCompleted).
		Where("valid_until >= ? AND valid_until < ?", from, to).
		Order("valid_until ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// MarkRenewalReminded claims the reminder for a record. Only the first caller wins.
func (l *OrderLedger) MarkRenewalReminded(ctx context.Context, id string, at time.Time) (bool, error) {
	res := l.db.WithContext(ctx).
		Model(&models.PayableOrder{}).
		Where("id = ? AND renewal_reminded_at IS NULL", id).
		Update("renewal_reminded_at", at)
	return l.applied(ctx, id, res)
}

func (l *OrderLedger) Ping(ctx context.Context) error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (l *OrderLedger) applied(ctx context.Context, id string, res *gorm.DB) (bool, error) {
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := l.cache.Invalidate(ctx, id); err != nil {
		l.logger.Warn("status cache invalidation failed", "order_id", id, "error", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
