// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const lowStockThreshold = 10

type Product struct {
	BaseModel
	FarmerID    uuid.UUID        `json:"farmerId" gorm:"type:uuid;not null;index"`
	Name        string           `json:"name" gorm:"size:100;not null"`
	Description string           `json:"description" gorm:"size:1000;not null"`
	Category    ProductCategory  `json:"category" gorm:"type:varchar(20);not null;index"`
	Emoji       string           `json:"emoji" gorm:"size:16;default:'🌱'"`
	Pricing     ProductPricing   `json:"pricing" gorm:"embedded;embeddedPrefix:pricing_"`
	Inventory   ProductInventory `json:"inventory" gorm:"embedded;embeddedPrefix:inventory_"`
	Grade       string           `json:"grade" gorm:"size:20;default:'Grade A'"`
	Organic     bool             `json:"organic" gorm:"not null"`
	Tags        JSONList[string] `json:"tags" gorm:"type:jsonb"`
	Rating      float64          `json:"rating" gorm:"type:decimal(3,2);default:0"`
	RatingCount int64            `json:"ratingCount" gorm:"default:0"`
	TotalSold   int64            `json:"totalSold" gorm:"default:0"`
	IsActive    bool             `json:"isActive" gorm:"not null;index"`
	IsFeatured  bool             `json:"isFeatured" gorm:"not null;index"`

	// Relationships
	Farmer *Farmer `json:"farmer,omitempty" gorm:"foreignKey:FarmerID"`
}

type ProductPricing struct {
	BasePrice decimal.Decimal        `json:"basePrice" gorm:"type:decimal(12,2);not null"`
	Unit      string                 `json:"unit" gorm:"size:20;not null"`
	Discounts JSONList[DiscountTier] `json:"discounts" gorm:"type:jsonb"`
}

// DiscountTier is a quantity break. A nil ValidUntil never expires.
type DiscountTier struct {
	MinQuantity     int        `json:"minQuantity"`
	DiscountPercent float64    `json:"discountPercent"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
}

func (d DiscountTier) eligible(quantity int, now time.Time) bool {
	if quantity < d.MinQuantity {
		return false
	}
	return d.ValidUntil == nil || d.ValidUntil.After(now)
}

// ProductInventory is the two-counter stock ledger. Counters are only mutated
// through conditional updates in the inventory service.
type ProductInventory struct {
	Available   int        `json:"available" gorm:"not null;default:0"`
	Reserved    int        `json:"reserved" gorm:"not null;default:0"`
	Unit        string     `json:"unit" gorm:"size:20;not null"`
	HarvestDate *time.Time `json:"harvestDate,omitempty"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
}

func (i ProductInventory) Total() int {
	return i.Available + i.Reserved
}

func (i ProductInventory) AvailabilityStatus() string {
	switch {
	case i.Available == 0:
		return "Out of Stock"
	case i.Available < lowStockThreshold:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// ApplicableDiscount returns the eligible tier with the highest percentage.
// When several tiers share that percentage the first one in list order wins.
func (p *Product) ApplicableDiscount(quantity int, now time.Time) (DiscountTier, bool) {
	var (
		best  DiscountTier
		found bool
	)
	for _, tier := range p.Pricing.Discounts {
		if !tier.eligible(quantity, now) {
			continue
		}
		if !found || tier.DiscountPercent > best.DiscountPercent {
			best = tier
			found = true
		}
	}
	return best, found
}

// DiscountedUnitPrice returns the unit price for the requested quantity and
// the discount percentage that produced it.
func (p *Product) DiscountedUnitPrice(quantity int, now time.Time) (decimal.Decimal, decimal.Decimal) {
	tier, ok := p.ApplicableDiscount(quantity, now)
	if !ok {
		return p.Pricing.BasePrice, decimal.Zero
	}

	percent := decimal.NewFromFloat(tier.DiscountPercent)
	factor := decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100)))
	return p.Pricing.BasePrice.Mul(factor), percent
}
