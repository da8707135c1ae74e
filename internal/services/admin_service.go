// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

const recentOrdersLimit = 10

type AdminService struct {
	db *gorm.DB
}

type AdminDashboardStats struct {
	TotalUsers       int64            `json:"totalUsers"`
	TotalAdmins      int64            `json:"totalAdmins"`
	TotalFarmerUsers int64            `json:"totalFarmerUsers"`
	TotalCustomers   int64            `json:"totalCustomers"`
	TotalOrders      int64            `json:"totalOrders"`
	OrdersByStatus   map[string]int64 `json:"ordersByStatus"`
	PendingOrders    int64            `json:"pendingOrders"`
	ProcessingOrders int64            `json:"processingOrders"`
	DeliveredOrders  int64            `json:"deliveredOrders"`
	TotalProducts    int64            `json:"totalProducts"`
	ActiveProducts   int64            `json:"activeProducts"`
	TotalFarmers     int64            `json:"totalFarmers"`
	VerifiedFarmers  int64            `json:"verifiedFarmers"`
	TotalRevenue     decimal.Decimal  `json:"totalRevenue"`
}

type AdminDashboard struct {
	Stats        *AdminDashboardStats `json:"stats"`
	RecentOrders []models.Order       `json:"recentOrders"`
}

// AdminUserFilter narrows the user listing. An empty Role or "all" lists
// every role.
type AdminUserFilter struct {
	utils.PaginationParams
	Role string `json:"role,omitempty"`
}

var userSortColumns = utils.SortColumns{
	"newest": "created_at",
	"name":   "name",
	"email":  "email",
	"role":   "role",
}

var revenueStatuses = []models.OrderStatus{
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Dashboard Statistics
func (s *AdminService) GetDashboard(ctx context.Context) (*AdminDashboard, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{OrdersByStatus: make(map[string]int64)}

	// User statistics
	counts := []struct {
		dest  *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&stats.TotalUsers, &models.User{}, "", nil},
		{&stats.TotalAdmins, &models.User{}, "role = ?", []interface{}{models.UserRoleAdmin}},
		{&stats.TotalFarmerUsers, &models.User{}, "role = ?", []interface{}{models.UserRoleFarmer}},
		{&stats.TotalCustomers, &models.User{}, "role = ?", []interface{}{models.UserRoleUser}},
		{&stats.TotalOrders, &models.Order{}, "", nil},
		{&stats.TotalProducts, &models.Product{}, "", nil},
		{&stats.ActiveProducts, &models.Product{}, "is_active = ?", []interface{}{true}},
		{&stats.TotalFarmers, &models.Farmer{}, "", nil},
		{&stats.VerifiedFarmers, &models.Farmer{}, "is_verified = ?", []interface{}{true}},
	}
	for _, c := range counts {
		query := db.Model(c.model)
		if c.query != "" {
			query = query.Where(c.query, c.args...)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
	}

	// Order statistics
	var grouped []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&grouped).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, status := range models.OrderStatuses {
		stats.OrdersByStatus[string(status)] = 0
	}
	for _, row := range grouped {
		stats.OrdersByStatus[string(row.Status)] = row.Count
	}
	stats.PendingOrders = stats.OrdersByStatus[string(models.OrderStatusPending)]
	stats.ProcessingOrders = stats.OrdersByStatus[string(models.OrderStatusProcessing)]
	stats.DeliveredOrders = stats.OrdersByStatus[string(models.OrderStatusDelivered)]

	// Revenue statistics
	if err := db.Model(&models.Order{}).
		Where("status IN ?", revenueStatuses).
		Select("COALESCE(SUM(total_amount), 0)").
		Row().Scan(&stats.TotalRevenue); err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	var recent []models.Order
	if err := db.Preload("Product").
		Order("created_at DESC").
		Limit(recentOrdersLimit).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent orders: %w", err)
	}

	return &AdminDashboard{Stats: stats, RecentOrders: recent}, nil
}

// User Management
func (s *AdminService) GetUsers(ctx context.Context, filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	// Apply filters
	if filter.Role != "" && filter.Role != "all" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, userSortColumns, "created_at")
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// ToggleUserStatus flips a user's active flag. Admin accounts cannot be
// deactivated.
func (s *AdminService) ToggleUserStatus(ctx context.Context, userID, adminID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if user.IsAdmin() {
			return ErrCannotDeactivateAdmin
		}

		user.IsActive = !user.IsActive
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", user.IsActive).Error; err != nil {
			return fmt.Errorf("failed to update user status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID.String(),
		"admin_id":  adminID.String(),
		"is_active": user.IsActive,
	}).Info("User status toggled")

	return &user, nil
}

// GetFarmers lists every farmer profile, verified or not, newest first.
func (s *AdminService) GetFarmers(ctx context.Context) ([]models.Farmer, error) {
	var farmers []models.Farmer
	if err := s.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Find(&farmers).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch farmers: %w", err)
	}
	return farmers, nil
}
