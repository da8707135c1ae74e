package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderNumber(t *testing.T) {
	at := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "AGT25070001", FormatOrderNumber("AGT", at, 1))
	assert.Equal(t, "AGT25070042", FormatOrderNumber("AGT", at, 42))
	assert.Equal(t, "AGT250712345", FormatOrderNumber("AGT", at, 12345))
}

func TestOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses {
		assert.True(t, status.IsValid(), status)
	}
	assert.False(t, OrderStatus("Lost").IsValid())
	assert.False(t, OrderStatus("pending").IsValid())

	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRefunded.IsTerminal())
}

func TestPaymentMethodIsValid(t *testing.T) {
	assert.True(t, PaymentMethodCashOnDelivery.IsValid())
	assert.True(t, PaymentMethodMobileMoney.IsValid())
	assert.False(t, PaymentMethod("Cheque").IsValid())
}

func TestFullDeliveryAddress(t *testing.T) {
	order := &Order{CustomerInfo: CustomerInfo{DeliveryAddress: Address{
		Street:  "12 Market Road",
		City:    "Ibadan",
		State:   "Oyo",
		Country: "Nigeria",
	}}}
	assert.Equal(t, "12 Market Road, Ibadan, Oyo, Nigeria", order.FullDeliveryAddress())

	order.CustomerInfo.DeliveryAddress.Street = ""
	assert.Equal(t, "Ibadan, Oyo, Nigeria", order.FullDeliveryAddress())
}

func TestFarmerDisplay(t *testing.T) {
	farmer := &Farmer{FarmName: "Green Acres", Location: Address{City: "Kaduna", State: "Kaduna", Country: "Nigeria"}}
	assert.Equal(t, "Kaduna, Kaduna", farmer.DisplayLocation())
	assert.Equal(t, "Kaduna, Kaduna, Nigeria", farmer.FullLocation())
	assert.Equal(t, "Green Acres", farmer.ContactName())
	assert.Empty(t, farmer.ContactPhone())

	farmer.User = &User{Name: "Amina Bello", Phone: "+2348099999999"}
	assert.Equal(t, "Amina Bello", farmer.ContactName())
	assert.Equal(t, "+2348099999999", farmer.ContactPhone())

	farmer.Location.State = ""
	assert.Equal(t, "Location not specified", farmer.DisplayLocation())
}

func TestJSONListRoundTrip(t *testing.T) {
	var empty JSONList[string]
	value, err := empty.Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", value)

	var tiers JSONList[DiscountTier]
	assert.NoError(t, tiers.Scan([]byte(`[{"minQuantity":5,"discountPercent":10}]`)))
	assert.Len(t, tiers, 1)
	assert.Equal(t, 5, tiers[0].MinQuantity)

	assert.Error(t, tiers.Scan(42))
}
