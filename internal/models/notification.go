// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderNotification is one entry of an order's communication log. Manual
// messages sent from the admin console have no order.
type OrderNotification struct {
	BaseModel
	OrderID   *uuid.UUID            `json:"orderId,omitempty" gorm:"type:uuid;index"`
	Channel   NotificationChannel   `json:"channel" gorm:"type:varchar(10);not null"`
	Recipient NotificationRecipient `json:"recipient" gorm:"type:varchar(20);not null"`
	Contact   string                `json:"contact" gorm:"size:255;not null"`
	Subject   string                `json:"subject,omitempty" gorm:"size:255"`
	Message   string                `json:"message" gorm:"type:text;not null"`
	Status    NotificationStatus    `json:"status" gorm:"type:varchar(10);not null;index"`
	Provider  string                `json:"provider" gorm:"size:50"`
	SentAt    *time.Time            `json:"sentAt,omitempty"`
	Error     string                `json:"error,omitempty" gorm:"type:text"`
}
