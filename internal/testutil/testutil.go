// internal/testutil/testutil.go
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/agrimarket-backend/internal/database"
	"github.com/javajoker/agrimarket-backend/internal/models"
)

const (
	BuyerPhone  = "+2348012345678"
	FarmerPhone = "+2348099999999"
)

// NewDB opens a migrated SQLite database private to the test. A single
// connection keeps transactions and plain queries on the same handle.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "agrimarket.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	id := uuid.New()
	user := &models.User{
		BaseModel: models.BaseModel{ID: id},
		Name:      "User " + id.String()[:8],
		Email:     id.String()[:8] + "@example.com",
		Phone:     BuyerPhone,
		Role:      role,
		IsActive:  true,
		Address: models.Address{
			City:    "Ibadan",
			State:   "Oyo",
			Country: "Nigeria",
		},
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateFarmer(t *testing.T, db *gorm.DB) *models.Farmer {
	t.Helper()

	user := CreateUser(t, db, models.UserRoleFarmer)
	user.Phone = FarmerPhone
	require.NoError(t, db.Model(user).Update("phone", user.Phone).Error)

	farmer := &models.Farmer{
		UserID:   user.ID,
		FarmName: "Green Acres",
		Location: models.Address{
			City:    "Kaduna",
			State:   "Kaduna",
			Country: "Nigeria",
		},
		IsVerified: true,
		IsActive:   true,
	}
	require.NoError(t, db.Create(farmer).Error)
	farmer.User = user
	return farmer
}

// ProductOption customises a product before it is inserted.
type ProductOption func(*models.Product)

func WithAvailable(n int) ProductOption {
	return func(p *models.Product) { p.Inventory.Available = n }
}

func WithBasePrice(price int64) ProductOption {
	return func(p *models.Product) { p.Pricing.BasePrice = decimal.NewFromInt(price) }
}

func WithDiscounts(tiers ...models.DiscountTier) ProductOption {
	return func(p *models.Product) { p.Pricing.Discounts = tiers }
}

func Inactive() ProductOption {
	return func(p *models.Product) { p.IsActive = false }
}

func CreateProduct(t *testing.T, db *gorm.DB, farmer *models.Farmer, opts ...ProductOption) *models.Product {
	t.Helper()

	harvest := time.Now().AddDate(0, 0, -2)
	product := &models.Product{
		FarmerID:    farmer.ID,
		Name:        "Tomatoes",
		Description: "Fresh Roma tomatoes",
		Category:    models.ProductCategoryVegetables,
		Emoji:       "🍅",
		Pricing: models.ProductPricing{
			BasePrice: decimal.NewFromInt(1000),
			Unit:      "basket",
		},
		Inventory: models.ProductInventory{
			Available:   100,
			Unit:        "basket",
			HarvestDate: &harvest,
		},
		Grade:    "Grade A",
		IsActive: true,
	}
	for _, opt := range opts {
		opt(product)
	}

	require.NoError(t, db.Create(product).Error)
	return product
}

// Inventory reads the ledger counters straight from the table.
func Inventory(t *testing.T, db *gorm.DB, productID uuid.UUID) models.ProductInventory {
	t.Helper()

	var product models.Product
	require.NoError(t, db.Unscoped().Where("id = ?", productID).First(&product).Error)
	return product.Inventory
}
