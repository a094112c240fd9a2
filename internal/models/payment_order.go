package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderStatus is the lifecycle state of a payment order.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// PaymentOrder stores one attempt to purchase the quota unlock.
type PaymentOrder struct {
	BaseModel
	OrderID        string         `gorm:"column:order_id;uniqueIndex;not null" json:"order_id"`
	AccountID      uuid.UUID      `gorm:"type:uuid;index;not null" json:"account_id"`
	Amount         int64          `gorm:"not null" json:"amount"`
	Currency       string         `gorm:"not null" json:"currency"`
	Status         OrderStatus    `gorm:"type:varchar(16);not null;default:created;index" json:"status"`
	ReceiptRef     string         `gorm:"column:receipt_ref;uniqueIndex;not null" json:"receipt_ref"`
	PaymentID      *string        `gorm:"column:payment_id" json:"payment_id,omitempty"`
	GatewayPayload datatypes.JSON `gorm:"column:gateway_payload" json:"-"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	FailedAt       *time.Time     `json:"failed_at,omitempty"`
	IsDeleted      bool           `gorm:"not null;default:false;index" json:"-"`
}
