package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

// IssuedOrder is everything the checkout client needs to collect the payment.
type IssuedOrder struct {
	OrderID          string `json:"orderId"`
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPublicKey string `json:"gatewayPublicKey"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}

type OrderIssuer struct {
	ledger    *OrderLedger
	gateway   Gateway
	publicKey string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewOrderIssuer(ledger *OrderLedger, gateway Gateway, publicKey string, timeout time.Duration, logger *slog.Logger) *OrderIssuer {
	return &OrderIssuer{
		ledger:    ledger,
		gateway:   gateway,
		publicKey: publicKey,
		timeout:   timeout,
		logger:    logger,
	}
}

// Issue creates the remote order for a freshly created record. Any gateway
// failure, including a timeout, leaves the record failed and returns
// *GatewayUnavailableError.
func (s *OrderIssuer) Issue(ctx context.Context, order *models.PayableOrder) (*IssuedOrder, error) {
	if order.GatewayOrderID != nil {
		return nil, ErrAlreadyIssued
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	remote, err := s.gateway.CreateOrder(callCtx, order.Amount, order.Currency, order.ID)
	if err == nil && remote.Amount != 0 && remote.Amount != order.Amount {
		err = fmt.Errorf("gateway echoed amount %d, ledger has %d", remote.Amount, order.Amount)
	}
	if err != nil {
		s.markFailed(ctx, order, err)
		return nil, &GatewayUnavailableError{OrderID: order.ID, Err: err}
	}

	// the remote order exists now; a caller that went away must not strand the record
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancelWrite()

	ok, err := s.ledger.AssignGatewayOrder(writeCtx, order.ID, remote.ID)
	if err != nil {
		s.markFailed(ctx, order, err)
		return nil, fmt.Errorf("store gateway order for %s: %w", order.ID, err)
	}
	if !ok {
		// already issued or no longer pending; either way the record is not stranded
		return nil, ErrAlreadyIssued
	}
	gatewayOrderID := remote.ID
	order.GatewayOrderID = &gatewayOrderID

	s.logger.Info("gateway order issued",
		"order_id", order.ID,
		"gateway_order_id", remote.ID,
		"amount", order.Amount,
	)

	return &IssuedOrder{
		OrderID:          order.ID,
		GatewayOrderID:   remote.ID,
		GatewayPublicKey: s.publicKey,
		Amount:           order.Amount,
		Currency:         order.Currency,
	}, nil
}

func (s *OrderIssuer) markFailed(ctx context.Context, order *models.PayableOrder, cause error) {
	policy, _ := models.PolicyFor(order.Kind)
	reason := "gateway order issuance failed"
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = "gateway order issuance timed out"
	}

	// the caller's context may be the one that expired
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	ok, err := s.ledger.FailIfPending(writeCtx, order.ID, policy.LifecycleOnFailure(), "", reason)
	if err != nil {
		s.logger.Error("could not record issuance failure", "order_id", order.ID, "error", err)
		return
	}
	if ok {
		order.PaymentStatus = models.PaymentFailed
		order.LifecycleStatus = policy.LifecycleOnFailure()
		order.FailureReason = reason
	}
	s.logger.Warn("gateway order issuance failed", "order_id", order.ID, "error", cause)
}
