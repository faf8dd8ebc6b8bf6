package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

const renewalBatchSize = 100

// RenewalReminder periodically tells members whose validity is about to end
// that they need to renew. Each record is reminded at most once.
type RenewalReminder struct {
	ledger   *OrderLedger
	notifier Notifier
	window   time.Duration
	clock    func() time.Time
	logger   *slog.Logger
}

func NewRenewalReminder(ledger *OrderLedger, notifier Notifier, window time.Duration, logger *slog.Logger) *RenewalReminder {
	return &RenewalReminder{
		ledger:   ledger,
		notifier: notifier,
		window:   window,
		clock:    time.Now,
		logger:   logger,
	}
}

// Start runs a sweep every interval until ctx is done.
func (r *RenewalReminder) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("renewal reminder sweep failed", "error", err)
			}
		}
	}
}

// Sweep reminds every lifecycle-tracking record expiring within the window and
// returns how many reminders went out.
func (r *RenewalReminder) Sweep(ctx context.Context) (int, error) {
	now := r.clock().UTC()
	sent := 0

	for _, kind := range models.Kinds() {
		policy, _ := models.PolicyFor(kind)
		if !policy.TracksLifecycle {
			continue
		}

		orders, err := r.ledger.ExpiringUnreminded(ctx, kind, now, now.Add(r.window), renewalBatchSize)
		if err != nil {
			return sent, fmt.Errorf("find expiring %s records: %w", kind, err)
		}

		for _, order := range orders {
			claimed, err := r.ledger.MarkRenewalReminded(ctx, order.ID, now)
			if err != nil {
				return sent, fmt.Errorf("claim reminder for %s: %w", order.ID, err)
			}
			if !claimed {
				continue
			}

			if err := r.notifier.Send(ctx, renewalMessage(order)); err != nil {
				// the claim stays; a second reminder is worse than a missed one
				r.logger.Warn("renewal reminder not delivered", "order_id", order.ID, "error", err)
				continue
			}
			sent++
		}
	}

	if sent > 0 {
		r.logger.Info("renewal reminders sent", "count", sent)
	}
	return sent, nil
}

func renewalMessage(order models.PayableOrder) Message {
	payer := order.Payer()
	until := order.ValidUntil.UTC().Format("02 Jan 2006")

	return Message{
		To:      payer.Email,
		Subject: fmt.Sprintf("Your %s expires on %s", order.Kind, until),
		Body: fmt.Sprintf("Dear %s,\n\nYour %s (receipt %s) is valid until %s.\nPlease renew to keep it active.\n",
			payer.Name, order.Kind, order.ReceiptNumber, until),
		OrderID: order.ID,
	}
}
