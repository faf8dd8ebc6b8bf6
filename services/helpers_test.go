package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gauravghatol/CREA-Final-sub001/config"
	"github.com/gauravghatol/CREA-Final-sub001/models"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB opens a private in-memory sqlite database with the production
// schema. A single connection serialises writers the way row locks would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestLedger(t *testing.T) *OrderLedger {
	t.Helper()
	return NewOrderLedger(newTestDB(t), nil, discardLogger())
}

// seedIssuedOrder stores a pending record that already has a gateway order.
func seedIssuedOrder(t *testing.T, ledger *OrderLedger, kind models.Kind, email string, amount int64) *models.PayableOrder {
	t.Helper()

	policy, ok := models.PolicyFor(kind)
	require.True(t, ok)

	gwID := "order_" + uuid.NewString()[:12]
	order := &models.PayableOrder{
		ID:   uuid.NewString(),
		Kind: kind,
		PayerSnapshot: datatypes.NewJSONType(models.PayerSnapshot{
			Name:  "Asha Patil",
			Email: email,
			Phone: "9876543210",
		}),
		PayerEmail:       email,
		Amount:           amount,
		Currency:         "INR",
		GatewayOrderID:   &gwID,
		PaymentStatus:    models.PaymentPending,
		LifecycleStatus:  policy.InitialLifecycle(),
		FulfillmentState: models.FulfillmentNotAttempted,
	}
	require.NoError(t, ledger.Create(context.Background(), order))
	return order
}

type fakeGateway struct {
	mu        sync.Mutex
	created   []int64
	createErr error
	delay     time.Duration
	orderID   string
	echo      int64 // amount to echo back; 0 echoes the request
	method    *PaymentMethod
	fetchErr  error
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receiptRef string) (*GatewayOrder, error) {
	g.mu.Lock()
	g.created = append(g.created, amount)
	g.mu.Unlock()

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.createErr != nil {
		return nil, g.createErr
	}

	id := g.orderID
	if id == "" {
		id = "order_" + uuid.NewString()[:12]
	}
	echo := amount
	if g.echo != 0 {
		echo = g.echo
	}
	return &GatewayOrder{ID: id, Amount: echo, Currency: currency, Receipt: receiptRef, Status: "created"}, nil
}

func (g *fakeGateway) FetchPaymentMethod(ctx context.Context, gatewayPaymentID string) (*PaymentMethod, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	if g.method == nil {
		return &PaymentMethod{Method: "upi", PayerIdentifier: "asha@okbank"}, nil
	}
	return g.method, nil
}

func (g *fakeGateway) createdAmounts() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.created...)
}

type sequenceIDs struct {
	n atomic.Uint64
}

func (s *sequenceIDs) NextID() (uint64, error) {
	return 1000 + s.n.Add(1), nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	orders []models.PayableOrder
}

func (d *recordingDispatcher) Dispatch(order models.PayableOrder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders = append(d.orders, order)
}

func (d *recordingDispatcher) dispatched() []models.PayableOrder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.PayableOrder(nil), d.orders...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var errInjected = errors.New("transient database error")

// failReadAfterUpdate makes the first query that follows a successful update
// on db fail once.
func failReadAfterUpdate(t *testing.T, db *gorm.DB) {
	t.Helper()
	var armed atomic.Bool

	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:arm_read_fault", func(tx *gorm.DB) {
		if tx.Error == nil && tx.RowsAffected > 0 {
			armed.Store(true)
		}
	}))
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:read_fault", func(tx *gorm.DB) {
		if armed.CompareAndSwap(true, false) {
			_ = tx.AddError(errInjected)
		}
	}))
}

// failNextUpdate makes the next update on db fail once.
func failNextUpdate(t *testing.T, db *gorm.DB) {
	t.Helper()
	var armed atomic.Bool
	armed.Store(true)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:update_fault", func(tx *gorm.DB) {
		if armed.CompareAndSwap(true, false) {
			_ = tx.AddError(errInjected)
		}
	}))
}
