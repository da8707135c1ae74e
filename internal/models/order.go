// internal/models/order.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	BaseModel
	OrderNumber  string          `json:"orderNumber" gorm:"size:32;not null;uniqueIndex"`
	UserID       uuid.UUID       `json:"userId" gorm:"type:uuid;not null;index"`
	FarmerID     uuid.UUID       `json:"farmerId" gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `json:"productId" gorm:"type:uuid;not null;index"`
	OrderDetails OrderDetails    `json:"orderDetails" gorm:"embedded;embeddedPrefix:detail_"`
	CustomerInfo CustomerInfo    `json:"customerInfo" gorm:"embedded;embeddedPrefix:customer_"`
	FarmerInfo   FarmerInfo      `json:"farmerInfo" gorm:"embedded;embeddedPrefix:farmer_"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'Pending';index"`
	PaymentInfo  PaymentInfo     `json:"paymentInfo" gorm:"embedded;embeddedPrefix:payment_"`
	DeliveryInfo DeliveryInfo    `json:"deliveryInfo" gorm:"embedded;embeddedPrefix:delivery_"`
	Notes        OrderNotes      `json:"notes" gorm:"embedded;embeddedPrefix:notes_"`
	TotalAmount  decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`

	// ReservationHeld is true while this order's units sit in the product's
	// reserved counter. It is cleared exactly once, by whichever transition
	// fulfils or releases them.
	ReservationHeld bool `json:"reservationHeld" gorm:"not null"`

	StatusHistory []OrderStatusEvent  `json:"statusHistory" gorm:"foreignKey:OrderID"`
	Communication []OrderNotification `json:"communication" gorm:"foreignKey:OrderID"`

	// Relationships
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Farmer  *Farmer  `json:"farmer,omitempty" gorm:"foreignKey:FarmerID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// OrderDetails is the product snapshot taken when the order is placed.
type OrderDetails struct {
	ProductName     string          `json:"productName" gorm:"size:100;not null"`
	ProductImage    string          `json:"productImage" gorm:"size:16"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	Unit            string          `json:"unit" gorm:"size:20;not null"`
	UnitPrice       decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	TotalPrice      decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	AppliedDiscount decimal.Decimal `json:"appliedDiscount" gorm:"type:decimal(5,2);not null"`
}

type CustomerInfo struct {
	Name            string  `json:"name" gorm:"size:100;not null"`
	Email           string  `json:"email" gorm:"size:255;not null"`
	Phone           string  `json:"phone" gorm:"size:30;not null"`
	DeliveryAddress Address `json:"deliveryAddress" gorm:"embedded;embeddedPrefix:delivery_"`
}

type FarmerInfo struct {
	Name     string `json:"name" gorm:"size:100;not null"`
	FarmName string `json:"farmName" gorm:"size:100"`
	Phone    string `json:"phone" gorm:"size:30"`
	Location string `json:"location" gorm:"size:255"`
}

type PaymentInfo struct {
	Method        PaymentMethod `json:"method" gorm:"type:varchar(30);not null"`
	Status        PaymentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	TransactionID string        `json:"transactionId,omitempty" gorm:"size:100"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	RefundedAt    *time.Time    `json:"refundedAt,omitempty"`
}

type DeliveryInfo struct {
	Method            DeliveryMethod  `json:"method" gorm:"type:varchar(20);not null"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actualDelivery,omitempty"`
	Fee               decimal.Decimal `json:"fee" gorm:"type:decimal(12,2);not null"`
	TrackingNumber    string          `json:"trackingNumber,omitempty" gorm:"size:100"`
	Notes             string          `json:"notes,omitempty" gorm:"type:text"`
}

type OrderNotes struct {
	Customer string `json:"customerNotes,omitempty" gorm:"type:text"`
	Farmer   string `json:"farmerNotes,omitempty" gorm:"type:text"`
	Admin    string `json:"adminNotes,omitempty" gorm:"type:text"`
}

// OrderStatusEvent is one append-only entry of an order's status history.
// The auto-increment ID gives a stable chronological order.
type OrderStatusEvent struct {
	ID        uint64      `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID   `json:"-" gorm:"type:uuid;not null;index"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);not null"`
	Timestamp time.Time   `json:"timestamp" gorm:"not null"`
	Note      string      `json:"note,omitempty" gorm:"type:text"`
	UpdatedBy *uuid.UUID  `json:"updatedBy,omitempty" gorm:"type:uuid"`
}

func NewStatusEvent(status OrderStatus, at time.Time, note string, updatedBy *uuid.UUID) OrderStatusEvent {
	return OrderStatusEvent{
		Status:    status,
		Timestamp: at,
		Note:      note,
		UpdatedBy: updatedBy,
	}
}

// FormatOrderNumber renders prefix + YYMM + a four digit zero padded sequence.
func FormatOrderNumber(prefix string, at time.Time, sequence int64) string {
	return fmt.Sprintf("%s%s%04d", prefix, at.Format("0601"), sequence)
}

func (o *Order) FullDeliveryAddress() string {
	addr := o.CustomerInfo.DeliveryAddress
	return JoinAddress(addr.Street, addr.City, addr.State, addr.Country)
}

// OrderSequence backs the atomically incremented order number counter.
type OrderSequence struct {
	Name  string `gorm:"primaryKey;size:50"`
	Value int64  `gorm:"not null;default:0"`
}
