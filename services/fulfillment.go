package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

// Fulfiller runs the post-payment side effects. Every step is isolated: a
// failure or panic in one is logged and the pipeline moves on. Nothing here
// can touch the payment status.
type Fulfiller struct {
	ledger    *OrderLedger
	renderer  ReceiptRenderer
	archive   ReceiptArchive
	notifier  Notifier
	publisher EventPublisher
	timeout   time.Duration
	logger    *slog.Logger

	wg sync.WaitGroup
}

type FulfillerDeps struct {
	Ledger    *OrderLedger
	Renderer  ReceiptRenderer
	Archive   ReceiptArchive // optional
	Notifier  Notifier
	Publisher EventPublisher // optional
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewFulfiller(d FulfillerDeps) *Fulfiller {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	return &Fulfiller{
		ledger:    d.Ledger,
		renderer:  d.Renderer,
		archive:   d.Archive,
		notifier:  d.Notifier,
		publisher: d.Publisher,
		timeout:   d.Timeout,
		logger:    d.Logger,
	}
}

// Dispatch runs Fulfill on its own goroutine so the payer-facing response
// never waits on receipts or mail.
func (f *Fulfiller) Dispatch(order models.PayableOrder) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.Fulfill(context.Background(), order)
	}()
}

// Wait blocks until every dispatched fulfillment has finished.
func (f *Fulfiller) Wait() {
	f.wg.Wait()
}

func (f *Fulfiller) Fulfill(ctx context.Context, order models.PayableOrder) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	defer f.markAttempted(order.ID)

	var receipt *Attachment
	f.step(order, "render_receipt", func() error {
		data, err := f.renderer.Render(order)
		if err != nil {
			return err
		}
		receipt = &Attachment{
			Filename:    ReceiptFilename(order),
			ContentType: "image/png",
			Data:        data,
		}
		return nil
	})

	if receipt != nil && f.archive != nil {
		f.step(order, "archive_receipt", func() error {
			location, err := f.archive.Store(ctx, order, receipt.Filename, receipt.Data)
			if err != nil {
				return err
			}
			f.logger.Info("receipt archived", "order_id", order.ID, "location", location)
			return nil
		})
	}

	f.step(order, "notify_payer", func() error {
		return f.notifier.Send(ctx, paymentMessage(order, receipt))
	})

	if f.publisher != nil {
		f.step(order, "publish_event", func() error {
			return f.publisher.PublishCompleted(ctx, order)
		})
	}
}

func (f *Fulfiller) step(order models.PayableOrder, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("fulfillment step panicked",
				"error", &FulfillmentError{OrderID: order.ID, Step: name, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if err := fn(); err != nil {
		f.logger.Error("fulfillment step failed",
			"error", &FulfillmentError{OrderID: order.ID, Step: name, Err: err})
	}
}

func (f *Fulfiller) markAttempted(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := f.ledger.MarkFulfillmentAttempted(ctx, orderID); err != nil {
		f.logger.Error("could not record fulfillment attempt", "order_id", orderID, "error", err)
	}
}

func paymentMessage(order models.PayableOrder, receipt *Attachment) Message {
	policy, _ := models.PolicyFor(order.Kind)
	payer := order.Payer()

	body := fmt.Sprintf("Dear %s,\n\nWe have received your payment of %s.\nReceipt number: %s\n",
		payer.Name, FormatAmount(order.Amount, order.Currency), order.ReceiptNumber)
	if policy.TracksLifecycle && order.ValidUntil != nil {
		body += fmt.Sprintf("Your %s is active until %s.\n", order.Kind, order.ValidUntil.UTC().Format("02 Jan 2006"))
	}
	if order.Kind == models.KindDonation {
		body += "Thank you for supporting the association.\n"
	}
	if receipt == nil {
		body += "Your receipt will be shared separately.\n"
	}

	return Message{
		To:         payer.Email,
		Subject:    policy.ReceiptTitle + " " + order.ReceiptNumber,
		Body:       body,
		OrderID:    order.ID,
		Attachment: receipt,
	}
}
