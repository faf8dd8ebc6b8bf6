package controllers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravghatol/CREA-Final-sub001/models"
	"github.com/gauravghatol/CREA-Final-sub001/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeIntake struct {
	IntakeFn func(ctx context.Context, req services.IntakeRequest) (*models.PayableOrder, error)
}

func (f *fakeIntake) Intake(ctx context.Context, req services.IntakeRequest) (*models.PayableOrder, error) {
	return f.IntakeFn(ctx, req)
}

type fakeIssuer struct {
	IssueFn func(ctx context.Context, order *models.PayableOrder) (*services.IssuedOrder, error)
}

func (f *fakeIssuer) Issue(ctx context.Context, order *models.PayableOrder) (*services.IssuedOrder, error) {
	return f.IssueFn(ctx, order)
}

type fakeStatus struct {
	StatusFn func(ctx context.Context, orderID string) (*services.OrderStatusView, error)
}

func (f *fakeStatus) Status(ctx context.Context, orderID string) (*services.OrderStatusView, error) {
	return f.StatusFn(ctx, orderID)
}

type fakeLifecycle struct {
	CompleteFn func(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*services.CompletionResult, error)
	WebhookFn  func(ctx context.Context, body []byte, signature string) (*services.CompletionResult, error)
}

func (f *fakeLifecycle) CompletePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*services.CompletionResult, error) {
	return f.CompleteFn(ctx, gatewayOrderID, gatewayPaymentID, signature)
}

func (f *fakeLifecycle) HandleWebhook(ctx context.Context, body []byte, signature string) (*services.CompletionResult, error) {
	return f.WebhookFn(ctx, body, signature)
}

type fakeLister struct {
	ListFn  func(ctx context.Context, f services.OrderFilter) ([]models.PayableOrder, int64, error)
	StatsFn func(ctx context.Context) ([]services.StatusCount, error)
}

func (f *fakeLister) List(ctx context.Context, filter services.OrderFilter) ([]models.PayableOrder, int64, error) {
	return f.ListFn(ctx, filter)
}

func (f *fakeLister) Stats(ctx context.Context) ([]services.StatusCount, error) {
	return f.StatsFn(ctx)
}

type fakeFeed struct {
	subject string
}

func (f *fakeFeed) ServeWS(w http.ResponseWriter, r *http.Request, subject string) {
	f.subject = subject
	w.WriteHeader(http.StatusOK)
}

type fakeInbox struct {
	ListFn     func(ctx context.Context, f services.NotificationFilter) ([]models.Notification, error)
	unread     int64
	markRead   map[string]bool
	markedAll  int64
	lastFilter services.NotificationFilter
}

func (f *fakeInbox) List(ctx context.Context, filter services.NotificationFilter) ([]models.Notification, error) {
	f.lastFilter = filter
	if f.ListFn == nil {
		return []models.Notification{}, nil
	}
	return f.ListFn(ctx, filter)
}

func (f *fakeInbox) UnreadCount(context.Context) (int64, error) { return f.unread, nil }

func (f *fakeInbox) MarkRead(_ context.Context, id string) (bool, error) {
	return f.markRead[id], nil
}

func (f *fakeInbox) MarkAllRead(context.Context) (int64, error) { return f.markedAll, nil }

type pingerFunc func(ctx context.Context) error

func (p pingerFunc) Ping(ctx context.Context) error { return p(ctx) }
