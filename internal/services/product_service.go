// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type ProductSearchParams struct {
	utils.PaginationParams
	FarmerID *uuid.UUID `json:"farmerId,omitempty"`
	Organic  *bool      `json:"organic,omitempty"`
	InStock  *bool      `json:"inStock,omitempty"`
}

var productSortColumns = utils.SortColumns{
	"newest":  "created_at",
	"name":    "name",
	"price":   "pricing_base_price",
	"rating":  "rating",
	"popular": "total_sold",
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		Preload("Farmer").Preload("Farmer.User").
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// SearchProducts lists active products, featured first then newest.
func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	// Apply filters
	if params.Category != "" && params.Category != "all" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.FarmerID != nil {
		query = query.Where("farmer_id = ?", *params.FarmerID)
	}

	if params.Organic != nil {
		query = query.Where("organic = ?", *params.Organic)
	}

	if params.InStock != nil && *params.InStock {
		query = query.Where("inventory_available > 0")
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order("is_featured DESC")
	query = utils.ApplySort(query, params.PaginationParams, productSortColumns, "created_at")

	// Apply pagination
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Preload("Farmer").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}
