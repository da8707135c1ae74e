// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrFarmerNotFound        = errors.New("farmer not found")
	ErrProductInactive       = errors.New("product is not available")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidStatus         = errors.New("invalid order status")
	ErrInvalidTransition     = errors.New("order cannot be cancelled in its current status")
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
	ErrInsufficientReserved  = errors.New("reserved stock is lower than the quantity to release")
	ErrMissingContact        = errors.New("missing contact")
	ErrCannotDeactivateAdmin = errors.New("admin users cannot be deactivated")
)

// InsufficientInventoryError carries the stock level observed when a request
// could not be satisfied.
type InsufficientInventoryError struct {
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory: only %d available", e.Available)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}
