// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Address is shared by users, farmers and delivery snapshots.
type Address struct {
	Street  string `json:"street,omitempty" gorm:"size:255"`
	City    string `json:"city" gorm:"size:100"`
	State   string `json:"state" gorm:"size:100"`
	Country string `json:"country" gorm:"size:100"`
	ZipCode string `json:"zipCode,omitempty" gorm:"size:20"`
}

// JSONList is a JSON encoded slice column.
type JSONList[T any] []T

func (j JSONList[T]) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONList[T]) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}

	return json.Unmarshal(data, j)
}

// Enums
type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleFarmer UserRole = "farmer"
	UserRoleAdmin  UserRole = "admin"
)

type ProductCategory string

const (
	ProductCategoryVegetables ProductCategory = "Vegetables"
	ProductCategoryFruits     ProductCategory = "Fruits"
	ProductCategoryGrains     ProductCategory = "Grains"
	ProductCategoryLegumes    ProductCategory = "Legumes"
	ProductCategoryTubers     ProductCategory = "Tubers"
	ProductCategorySpices     ProductCategory = "Spices"
	ProductCategoryLivestock  ProductCategory = "Livestock"
	ProductCategoryPoultry    ProductCategory = "Poultry"
	ProductCategoryDairy      ProductCategory = "Dairy"
	ProductCategoryOther      ProductCategory = "Other"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusRefunded   OrderStatus = "Refunded"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func (s OrderStatus) IsValid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentMethodBankTransfer   PaymentMethod = "Bank Transfer"
	PaymentMethodCard           PaymentMethod = "Card Payment"
	PaymentMethodMobileMoney    PaymentMethod = "Mobile Money"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodMobileMoney:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

type DeliveryMethod string

const (
	DeliveryMethodHome       DeliveryMethod = "Home Delivery"
	DeliveryMethodPickup     DeliveryMethod = "Pickup"
	DeliveryMethodThirdParty DeliveryMethod = "Third Party"
)

type NotificationChannel string

const (
	NotificationChannelSMS   NotificationChannel = "SMS"
	NotificationChannelEmail NotificationChannel = "Email"
)

type NotificationRecipient string

const (
	NotificationRecipientCustomer NotificationRecipient = "customer"
	NotificationRecipientFarmer   NotificationRecipient = "farmer"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "Pending"
	NotificationStatusSent    NotificationStatus = "Sent"
	NotificationStatusFailed  NotificationStatus = "Failed"
)
