package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To         string
	Subject    string
	Body       string
	OrderID    string
	Attachment *Attachment
}

// Notifier delivers a message to a payer. Delivery is fire-and-forget from the
// payment flow's point of view; errors are only logged by the caller.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type MailNotifier struct {
	sender MailSender
	from   string
}

func NewMailNotifier(sender MailSender, from string) *MailNotifier {
	return &MailNotifier{sender: sender, from: from}
}

func (n *MailNotifier) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if a := msg.Attachment; a != nil {
		m.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(a.Data)
				return err
			}),
		)
	}

	// gomail has no context support, so the SMTP exchange is raced against ctx
	done := make(chan error, 1)
	go func() { done <- n.sender.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", msg.To, ctx.Err())
	}
}

// Broadcaster pushes live events to connected dashboard clients.
type Broadcaster interface {
	Broadcast(event interface{})
}

type NotificationEvent struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

// InboxNotifier stores an in-app notification and pushes it to live clients.
type InboxNotifier struct {
	db     *gorm.DB
	hub    Broadcaster
	action string
	clock  func() time.Time
}

func NewInboxNotifier(db *gorm.DB, hub Broadcaster, action string) *InboxNotifier {
	return &InboxNotifier{db: db, hub: hub, action: action, clock: time.Now}
}

func (n *InboxNotifier) Send(ctx context.Context, msg Message) error {
	noti := models.Notification{
		ID:        uuid.NewString(),
		Recipient: msg.To,
		OrderID:   msg.OrderID,
		Action:    n.action,
		Subject:   msg.Subject,
		Message:   msg.Body,
		CreatedAt: n.clock(),
	}
	if err := n.db.WithContext(ctx).Create(&noti).Error; err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if n.hub != nil {
		n.hub.Broadcast(NotificationEvent{Type: n.action, Notification: noti})
	}
	return nil
}

// MultiNotifier sends through every notifier and joins their errors.
type MultiNotifier []Notifier

func (mn MultiNotifier) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range mn {
		if err := n.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
