package models

import (
	"time"

	"gorm.io/datatypes"
)

type Kind string

const (
	KindMembership Kind = "membership"
	KindDonation   Kind = "donation"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// LifecycleStatus only applies to kinds that track a lifecycle; donations keep it empty.
type LifecycleStatus string

const (
	LifecycleNone     LifecycleStatus = ""
	LifecyclePending  LifecycleStatus = "pending"
	LifecycleActive   LifecycleStatus = "active"
	LifecycleRejected LifecycleStatus = "rejected"
	LifecycleExpired  LifecycleStatus = "expired"
)

type FulfillmentState string

const (
	FulfillmentNotAttempted FulfillmentState = "not_attempted"
	FulfillmentAttempted    FulfillmentState = "attempted"
)

// PayerSnapshot is what the payer submitted at intake. It is never rewritten.
type PayerSnapshot struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Designation  string `json:"designation,omitempty"`
	Department   string `json:"department,omitempty"`
	Organization string `json:"organization,omitempty"`
	Address      string `json:"address,omitempty"`
	Note         string `json:"note,omitempty"`
}

// PayableOrder is one membership application or donation.
type PayableOrder struct {
	ID                string                            `gorm:"type:char(36);primaryKey" json:"id"`
	Kind              Kind                              `gorm:"type:varchar(20);not null;index" json:"kind"`
	PayerSnapshot     datatypes.JSONType[PayerSnapshot] `gorm:"not null" json:"payer"`
	PayerEmail        string                            `gorm:"type:varchar(255);not null;index" json:"-"`
	Amount            int64                             `gorm:"not null" json:"amount"`
	Currency          string                            `gorm:"type:varchar(3);not null" json:"currency"`
	GatewayOrderID    *string                           `gorm:"type:varchar(64);uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID  *string                           `gorm:"type:varchar(64)" json:"gateway_payment_id"`
	GatewaySignature  *string                           `gorm:"type:varchar(128)" json:"-"`
	PaymentMethod     string                            `gorm:"type:varchar(32)" json:"payment_method,omitempty"`
	PayerIdentifier   string                            `gorm:"type:varchar(255)" json:"payer_identifier,omitempty"`
	PaymentStatus     PaymentStatus                     `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	LifecycleStatus   LifecycleStatus                   `gorm:"type:varchar(20)" json:"lifecycle_status,omitempty"`
	ValidFrom         *time.Time                        `json:"valid_from"`
	ValidUntil        *time.Time                        `json:"valid_until"`
	ReceiptNumber     string                            `gorm:"type:varchar(32)" json:"receipt_number,omitempty"`
	FulfillmentState  FulfillmentState                  `gorm:"type:varchar(20);not null;default:'not_attempted'" json:"fulfillment_state"`
	FailureReason     string                            `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	PaymentDate       *time.Time                        `json:"payment_date"`
	RenewalRemindedAt *time.Time                        `gorm:"index" json:"renewal_reminded_at,omitempty"`
	CreatedAt         time.Time                         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PayableOrder) TableName() string {
	return "payable_orders"
}

func (o *PayableOrder) Payer() PayerSnapshot {
	return o.PayerSnapshot.Data()
}

// EffectiveLifecycle reports expired for an active record whose validity has lapsed.
// Stored state is left untouched so active keeps meaning completed.
func (o *PayableOrder) EffectiveLifecycle(now time.Time) LifecycleStatus {
	if o.LifecycleStatus == LifecycleActive && o.ValidUntil != nil && now.After(*o.ValidUntil) {
		return LifecycleExpired
	}
	return o.LifecycleStatus
}
