package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

type CompletionStatus string

const (
	StatusCompleted        CompletionStatus = "completed"
	StatusFailed           CompletionStatus = "failed"
	StatusAlreadyProcessed CompletionStatus = "already_processed"
	StatusIgnored          CompletionStatus = "ignored"
)

type CompletionResult struct {
	Status CompletionStatus
	Order  *models.PayableOrder
}

// IDGenerator hands out receipt numbers; *sonyflake.Sonyflake satisfies it.
type IDGenerator interface {
	NextID() (uint64, error)
}

// Dispatcher starts fulfillment for a freshly completed order without blocking.
type Dispatcher interface {
	Dispatch(order models.PayableOrder)
}

type LifecycleMachine struct {
	ledger       *OrderLedger
	verifier     *SignatureVerifier
	gateway      Gateway
	fulfillment  Dispatcher
	receipts     IDGenerator
	clock        func() time.Time
	fetchTimeout time.Duration
	logger       *slog.Logger
}

type LifecycleDeps struct {
	Ledger       *OrderLedger
	Verifier     *SignatureVerifier
	Gateway      Gateway
	Fulfillment  Dispatcher
	Receipts     IDGenerator
	Clock        func() time.Time
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

func NewLifecycleMachine(d LifecycleDeps) *LifecycleMachine {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.FetchTimeout <= 0 {
		d.FetchTimeout = 5 * time.Second
	}
	return &LifecycleMachine{
		ledger:       d.Ledger,
		verifier:     d.Verifier,
		gateway:      d.Gateway,
		fulfillment:  d.Fulfillment,
		receipts:     d.Receipts,
		clock:        d.Clock,
		fetchTimeout: d.FetchTimeout,
		logger:       d.Logger,
	}
}

// CompletePayment applies a client-reported checkout completion. Repeated
// deliveries for a record that already left pending are answered with
// already_processed and are not re-verified.
func (m *LifecycleMachine) CompletePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*CompletionResult, error) {
	order, err := m.lookup(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentPending {
		return &CompletionResult{Status: StatusAlreadyProcessed, Order: order}, nil
	}

	if !m.verifier.Verify(gatewayOrderID, gatewayPaymentID, signature) {
		m.logger.Warn("payment signature mismatch, possible tampering",
			"order_id", order.ID,
			"gateway_order_id", gatewayOrderID,
			"gateway_payment_id", gatewayPaymentID,
		)
		return nil, &SignatureMismatchError{GatewayOrderID: gatewayOrderID}
	}

	return m.complete(ctx, order, gatewayPaymentID, signature)
}

// FailPayment records a gateway-reported payment failure. No fulfillment runs.
func (m *LifecycleMachine) FailPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) (*CompletionResult, error) {
	order, err := m.lookup(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentPending {
		return &CompletionResult{Status: StatusAlreadyProcessed, Order: order}, nil
	}

	policy, _ := models.PolicyFor(order.Kind)
	applied, err := m.ledger.FailIfPending(ctx, order.ID, policy.LifecycleOnFailure(), gatewayPaymentID, reason)
	if err != nil {
		return nil, fmt.Errorf("fail order %s: %w", order.ID, err)
	}

	fresh, err := m.ledger.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("reload order %s: %w", order.ID, err)
	}
	if !applied {
		return &CompletionResult{Status: StatusAlreadyProcessed, Order: fresh}, nil
	}

	m.logger.Info("payment failed", "order_id", order.ID, "gateway_order_id", gatewayOrderID, "reason", reason)
	return &CompletionResult{Status: StatusFailed, Order: fresh}, nil
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorCode        string `json:"error_code"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook applies a signed server-to-server gateway event. The body
// signature replaces the checkout signature as proof of origin.
func (m *LifecycleMachine) HandleWebhook(ctx context.Context, body []byte, signature string) (*CompletionResult, error) {
	if !m.verifier.VerifyWebhook(body, signature) {
		m.logger.Warn("webhook signature mismatch, possible tampering", "signature", signature)
		return nil, &SignatureMismatchError{}
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"body": "malformed webhook payload"}}
	}
	payment := evt.Payload.Payment.Entity

	switch evt.Event {
	case "payment.captured":
		order, err := m.lookup(ctx, payment.OrderID)
		if err != nil {
			return nil, err
		}
		if order.PaymentStatus != models.PaymentPending {
			return &CompletionResult{Status: StatusAlreadyProcessed, Order: order}, nil
		}
		return m.complete(ctx, order, payment.ID, signature)

	case "payment.failed":
		reason := payment.ErrorDescription
		if reason == "" {
			reason = payment.ErrorCode
		}
		return m.FailPayment(ctx, payment.OrderID, payment.ID, reason)

	default:
		m.logger.Info("webhook event ignored", "event", evt.Event)
		return &CompletionResult{Status: StatusIgnored}, nil
	}
}

func (m *LifecycleMachine) lookup(ctx context.Context, gatewayOrderID string) (*models.PayableOrder, error) {
	order, err := m.ledger.FindByGatewayOrderID(ctx, gatewayOrderID)
	if isNotFound(err) {
		return nil, &RecordNotFoundError{GatewayOrderID: gatewayOrderID}
	}
	if err != nil {
		return nil, fmt.Errorf("lookup gateway order %s: %w", gatewayOrderID, err)
	}
	return order, nil
}

func (m *LifecycleMachine) complete(ctx context.Context, order *models.PayableOrder, gatewayPaymentID, signature string) (*CompletionResult, error) {
	policy, ok := models.PolicyFor(order.Kind)
	if !ok {
		return nil, fmt.Errorf("order %s has unknown kind %q", order.ID, order.Kind)
	}

	receiptID, err := m.receipts.NextID()
	if err != nil {
		return nil, fmt.Errorf("generate receipt number: %w", err)
	}

	now := m.clock().UTC()
	validFrom, validUntil := policy.Validity(now)
	method := m.paymentMethod(ctx, order.ID, gatewayPaymentID)

	completion := Completion{
		GatewayPaymentID: gatewayPaymentID,
		GatewaySignature: signature,
		PaymentMethod:    method.Method,
		PayerIdentifier:  method.PayerIdentifier,
		ReceiptNumber:    strconv.FormatUint(receiptID, 10),
		Lifecycle:        policy.LifecycleOnCompletion(),
		PaymentDate:      now,
		ValidFrom:        validFrom,
		ValidUntil:       validUntil,
	}
	applied, err := m.ledger.CompleteIfPending(ctx, order.ID, completion)
	if err != nil {
		return nil, fmt.Errorf("complete order %s: %w", order.ID, err)
	}

	if !applied {
		fresh, err := m.ledger.FindByID(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("reload order %s: %w", order.ID, err)
		}
		return &CompletionResult{Status: StatusAlreadyProcessed, Order: fresh}, nil
	}

	// the transition is committed; a failed reload must not hide it or skip fulfillment
	fresh, err := m.ledger.FindByID(ctx, order.ID)
	if err != nil {
		m.logger.Warn("reload after completion failed, using written values", "order_id", order.ID, "error", err)
		fresh = completedCopy(order, completion)
	}

	m.logger.Info("payment completed",
		"order_id", fresh.ID,
		"kind", fresh.Kind,
		"gateway_order_id", *fresh.GatewayOrderID,
		"gateway_payment_id", gatewayPaymentID,
		"receipt_number", fresh.ReceiptNumber,
	)

	// only the winning update gets here, so fulfillment starts once
	if m.fulfillment != nil {
		m.fulfillment.Dispatch(*fresh)
	}
	return &CompletionResult{Status: StatusCompleted, Order: fresh}, nil
}

// completedCopy applies a winning completion to the record as it was read
// before the update.
func completedCopy(order *models.PayableOrder, c Completion) *models.PayableOrder {
	out := *order
	paymentID, signature := c.GatewayPaymentID, c.GatewaySignature
	paymentDate, validFrom, validUntil := c.PaymentDate, c.ValidFrom, c.ValidUntil

	out.PaymentStatus = models.PaymentCompleted
	out.GatewayPaymentID = &paymentID
	out.GatewaySignature = &signature
	out.PaymentMethod = c.PaymentMethod
	out.PayerIdentifier = c.PayerIdentifier
	out.ReceiptNumber = c.ReceiptNumber
	out.LifecycleStatus = c.Lifecycle
	out.PaymentDate = &paymentDate
	out.ValidFrom = &validFrom
	out.ValidUntil = &validUntil
	return &out
}

// paymentMethod is best effort; a gateway hiccup must not block the transition.
func (m *LifecycleMachine) paymentMethod(ctx context.Context, orderID, gatewayPaymentID string) PaymentMethod {
	if m.gateway == nil {
		return PaymentMethod{}
	}
	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	pm, err := m.gateway.FetchPaymentMethod(fetchCtx, gatewayPaymentID)
	if err != nil {
		m.logger.Warn("could not fetch payment method", "order_id", orderID, "gateway_payment_id", gatewayPaymentID, "error", err)
		return PaymentMethod{}
	}
	return *pm
}
