// internal/services/farmer_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

type FarmerService struct {
	db *gorm.DB
}

type FarmerSearchParams struct {
	utils.PaginationParams
	State    string `json:"state,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
}

func NewFarmerService(db *gorm.DB) *FarmerService {
	return &FarmerService{db: db}
}

func (s *FarmerService) ListFarmers(ctx context.Context, params FarmerSearchParams) ([]models.Farmer, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Farmer{}).Where("is_active = ?", true)

	if params.State != "" {
		query = query.Where("location_state = ?", params.State)
	}

	if params.Verified != nil {
		query = query.Where("is_verified = ?", *params.Verified)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count farmers: %w", err)
	}

	var farmers []models.Farmer
	if err := utils.ApplyPagination(query, params.PaginationParams).
		Preload("User").
		Order("rating DESC").Order("created_at DESC").
		Find(&farmers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch farmers: %w", err)
	}

	return farmers, total, nil
}

// GetFarmer returns the farmer with its active products.
func (s *FarmerService) GetFarmer(ctx context.Context, id uuid.UUID) (*models.Farmer, error) {
	var farmer models.Farmer
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Products", "is_active = ?", true).
		Where("id = ? AND is_active = ?", id, true).
		First(&farmer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFarmerNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &farmer, nil
}
