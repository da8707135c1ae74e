// internal/models/user.go
package models

import "strings"

type User struct {
	BaseModel
	Name     string   `json:"name" gorm:"size:100;not null"`
	Email    string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone    string   `json:"phone" gorm:"size:30;not null"`
	Role     UserRole `json:"role" gorm:"type:varchar(20);not null;default:'user';index"`
	IsActive bool     `json:"isActive" gorm:"not null"`
	Address  Address  `json:"address" gorm:"embedded;embeddedPrefix:address_"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// JoinAddress renders the non-empty parts of an address separated by commas.
func JoinAddress(parts ...string) string {
	var filled []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			filled = append(filled, part)
		}
	}
	return strings.Join(filled, ", ")
}
