package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

// OrderStatusView is the public projection of a record: no payer data, no signature.
type OrderStatusView struct {
	OrderID          string                  `json:"orderId"`
	Kind             models.Kind             `json:"kind"`
	Amount           int64                   `json:"amount"`
	Currency         string                  `json:"currency"`
	GatewayOrderID   string                  `json:"gatewayOrderId,omitempty"`
	PaymentStatus    models.PaymentStatus    `json:"paymentStatus"`
	LifecycleStatus  models.LifecycleStatus  `json:"lifecycleStatus,omitempty"`
	ValidFrom        *time.Time              `json:"validFrom,omitempty"`
	ValidUntil       *time.Time              `json:"validUntil,omitempty"`
	PaymentDate      *time.Time              `json:"paymentDate,omitempty"`
	ReceiptNumber    string                  `json:"receiptNumber,omitempty"`
	FulfillmentState models.FulfillmentState `json:"fulfillmentState"`
}

func NewOrderStatusView(o *models.PayableOrder, now time.Time) *OrderStatusView {
	v := &OrderStatusView{
		OrderID:          o.ID,
		Kind:             o.Kind,
		Amount:           o.Amount,
		Currency:         o.Currency,
		PaymentStatus:    o.PaymentStatus,
		LifecycleStatus:  o.EffectiveLifecycle(now),
		ValidFrom:        o.ValidFrom,
		ValidUntil:       o.ValidUntil,
		PaymentDate:      o.PaymentDate,
		ReceiptNumber:    o.ReceiptNumber,
		FulfillmentState: o.FulfillmentState,
	}
	if o.GatewayOrderID != nil {
		v.GatewayOrderID = *o.GatewayOrderID
	}
	return v
}

type OrderQuery struct {
	ledger *OrderLedger
	cache  StatusCache
	clock  func() time.Time
	logger *slog.Logger
}

func NewOrderQuery(ledger *OrderLedger, cache StatusCache, clock func() time.Time, logger *slog.Logger) *OrderQuery {
	if cache == nil {
		cache = NoopStatusCache{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &OrderQuery{ledger: ledger, cache: cache, clock: clock, logger: logger}
}

// Status returns the public view of a record, reading through the cache.
// An unknown id yields gorm.ErrRecordNotFound.
func (q *OrderQuery) Status(ctx context.Context, orderID string) (*OrderStatusView, error) {
	cached, err := q.cache.Get(ctx, orderID)
	if err != nil {
		q.logger.Warn("status cache read failed", "order_id", orderID, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	order, err := q.ledger.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	view := NewOrderStatusView(order, q.clock())
	if err := q.cache.Set(ctx, view); err != nil {
		q.logger.Warn("status cache write failed", "order_id", orderID, "error", err)
	}
	return view, nil
}

func (q *OrderQuery) List(ctx context.Context, f OrderFilter) ([]models.PayableOrder, int64, error) {
	return q.ledger.List(ctx, f)
}

func (q *OrderQuery) Stats(ctx context.Context) ([]StatusCount, error) {
	return q.ledger.Stats(ctx)
}
