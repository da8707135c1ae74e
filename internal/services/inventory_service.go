// internal/services/inventory_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/agrimarket-backend/internal/models"
)

// InventoryService owns the available/reserved counters of a product. Every
// mutation is a single conditional UPDATE, so concurrent callers can never
// drive either counter below zero.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// WithTx returns a copy bound to the caller's transaction.
func (s *InventoryService) WithTx(tx *gorm.DB) *InventoryService {
	return &InventoryService{db: tx}
}

// Reserve moves quantity from available to reserved.
func (s *InventoryService) Reserve(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND inventory_available >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"inventory_available": gorm.Expr("inventory_available - ?", quantity),
			"inventory_reserved":  gorm.Expr("inventory_reserved + ?", quantity),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reserve inventory: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		inventory, err := s.Get(ctx, productID)
		if err != nil {
			return err
		}
		return &InsufficientInventoryError{Available: inventory.Available}
	}

	return nil
}

// Release moves quantity from reserved back to available.
func (s *InventoryService) Release(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND inventory_reserved >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"inventory_available": gorm.Expr("inventory_available + ?", quantity),
			"inventory_reserved":  gorm.Expr("inventory_reserved - ?", quantity),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release inventory: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := s.Get(ctx, productID); err != nil {
			return err
		}
		return ErrInsufficientReserved
	}

	return nil
}

// Fulfil consumes a reservation once goods have been delivered.
func (s *InventoryService) Fulfil(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND inventory_reserved >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"inventory_reserved": gorm.Expr("inventory_reserved - ?", quantity),
			"total_sold":         gorm.Expr("total_sold + ?", quantity),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to fulfil reservation: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := s.Get(ctx, productID); err != nil {
			return err
		}
		return ErrInsufficientReserved
	}

	return nil
}

func (s *InventoryService) Get(ctx context.Context, productID uuid.UUID) (*models.ProductInventory, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Unscoped().
		Select("id", "inventory_available", "inventory_reserved", "inventory_unit").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return &product.Inventory, nil
}
