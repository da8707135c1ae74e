// internal/models/farmer.go
package models

import (
	"fmt"

	"github.com/google/uuid"
)

type Farmer struct {
	BaseModel
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	FarmName    string    `json:"farmName" gorm:"size:100;not null"`
	Location    Address   `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	IsVerified  bool      `json:"isVerified" gorm:"not null;index"`
	IsActive    bool      `json:"isActive" gorm:"not null;index"`
	Rating      float64   `json:"rating" gorm:"type:decimal(3,2);default:0"`
	RatingCount int64     `json:"ratingCount" gorm:"default:0"`
	TotalSales  int64     `json:"totalSales" gorm:"default:0"`

	// Relationships
	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:FarmerID"`
}

func (f *Farmer) FullLocation() string {
	return JoinAddress(f.Location.City, f.Location.State, f.Location.Country)
}

// DisplayLocation is the "City, State" form captured on order snapshots.
func (f *Farmer) DisplayLocation() string {
	if f.Location.City != "" && f.Location.State != "" {
		return fmt.Sprintf("%s, %s", f.Location.City, f.Location.State)
	}
	return "Location not specified"
}

// ContactName prefers the owning user's name over the farm name.
func (f *Farmer) ContactName() string {
	if f.User != nil && f.User.Name != "" {
		return f.User.Name
	}
	return f.FarmName
}

func (f *Farmer) ContactPhone() string {
	if f.User != nil {
		return f.User.Phone
	}
	return ""
}
