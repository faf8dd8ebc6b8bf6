package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

// EventPublisher announces completed payments to downstream consumers
// (membership roster, accounting export).
type EventPublisher interface {
	PublishCompleted(ctx context.Context, order models.PayableOrder) error
}

type OrderCompletedEvent struct {
	EventType string `json:"event_type"`
	Data      struct {
		OrderID          string                 `json:"order_id"`
		Kind             models.Kind            `json:"kind"`
		Amount           int64                  `json:"amount"`
		Currency         string                 `json:"currency"`
		PayerEmail       string                 `json:"payer_email"`
		ReceiptNumber    string                 `json:"receipt_number"`
		GatewayPaymentID string                 `json:"gateway_payment_id"`
		LifecycleStatus  models.LifecycleStatus `json:"lifecycle_status,omitempty"`
		ValidUntil       *time.Time             `json:"valid_until,omitempty"`
		PaidAt           string                 `json:"paid_at"`
	} `json:"data"`
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// NewSyncProducer builds a producer that waits for all in-sync replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	return sarama.NewSyncProducer(brokers, cfg)
}

func (p *KafkaPublisher) PublishCompleted(ctx context.Context, order models.PayableOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var evt OrderCompletedEvent
	evt.EventType = "payable_order.completed"
	evt.Data.OrderID = order.ID
	evt.Data.Kind = order.Kind
	evt.Data.Amount = order.Amount
	evt.Data.Currency = order.Currency
	evt.Data.PayerEmail = order.PayerEmail
	evt.Data.ReceiptNumber = order.ReceiptNumber
	evt.Data.LifecycleStatus = order.LifecycleStatus
	evt.Data.ValidUntil = order.ValidUntil
	if order.GatewayPaymentID != nil {
		evt.Data.GatewayPaymentID = *order.GatewayPaymentID
	}
	if order.PaymentDate != nil {
		evt.Data.PaidAt = order.PaymentDate.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.EventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(order.ID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send %s event: %w", evt.EventType, err)
	}
	return nil
}
