package models

import "time"

type Notification struct {
	ID        string     `gorm:"type:char(36);primaryKey" json:"id"`
	Recipient string     `gorm:"type:varchar(255);not null;index" json:"recipient"` // payer email
	OrderID   string     `gorm:"type:char(36);index" json:"order_id,omitempty"`
	Action    string     `gorm:"type:varchar(50);index" json:"action"` // payment_completed, ...
	Subject   string     `gorm:"type:varchar(255)" json:"subject"`
	Message   string     `gorm:"type:text" json:"message"`
	IsRead    bool       `gorm:"default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
