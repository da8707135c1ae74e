package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/testutil"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

func TestGetUsersFiltersByRole(t *testing.T) {
	db := testutil.NewDB(t)
	buyer := testutil.CreateUser(t, db, models.UserRoleUser)
	testutil.CreateUser(t, db, models.UserRoleAdmin)
	testutil.CreateFarmer(t, db)

	service := NewAdminService(db)
	ctx := context.Background()
	params := utils.PaginationParams{Page: 1, Limit: 20, Order: "desc"}

	users, total, err := service.GetUsers(ctx, AdminUserFilter{PaginationParams: params, Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, buyer.ID, users[0].ID)

	_, total, err = service.GetUsers(ctx, AdminUserFilter{PaginationParams: params, Role: "all"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	params.Limit = 2
	users, total, err = service.GetUsers(ctx, AdminUserFilter{PaginationParams: params})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 2)

	params.Limit = 20
	params.Search = buyer.Email[:6]
	users, _, err = service.GetUsers(ctx, AdminUserFilter{PaginationParams: params})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, buyer.ID, users[0].ID)
}

func TestToggleUserStatus(t *testing.T) {
	db := testutil.NewDB(t)
	buyer := testutil.CreateUser(t, db, models.UserRoleUser)
	admin := testutil.CreateUser(t, db, models.UserRoleAdmin)

	service := NewAdminService(db)
	ctx := context.Background()

	user, err := service.ToggleUserStatus(ctx, buyer.ID, admin.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	var stored models.User
	require.NoError(t, db.Where("id = ?", buyer.ID).First(&stored).Error)
	assert.False(t, stored.IsActive)

	user, err = service.ToggleUserStatus(ctx, buyer.ID, admin.ID)
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	_, err = service.ToggleUserStatus(ctx, admin.ID, admin.ID)
	assert.ErrorIs(t, err, ErrCannotDeactivateAdmin)
	require.NoError(t, db.Where("id = ?", admin.ID).First(&stored).Error)
	assert.True(t, stored.IsActive)

	_, err = service.ToggleUserStatus(ctx, uuid.New(), admin.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminGetFarmersIncludesUnverified(t *testing.T) {
	db := testutil.NewDB(t)
	older := testutil.CreateFarmer(t, db)
	newer := testutil.CreateFarmer(t, db)
	require.NoError(t, db.Model(older).Updates(map[string]interface{}{
		"is_verified": false,
		"is_active":   false,
		"created_at":  time.Now().Add(-time.Hour),
	}).Error)

	farmers, err := NewAdminService(db).GetFarmers(context.Background())
	require.NoError(t, err)
	require.Len(t, farmers, 2)
	assert.Equal(t, newer.ID, farmers[0].ID)
	assert.Equal(t, older.ID, farmers[1].ID)
	require.NotNil(t, farmers[1].User)
	assert.Equal(t, testutil.FarmerPhone, farmers[1].User.Phone)
}

func TestGetUserByID(t *testing.T) {
	db := testutil.NewDB(t)
	buyer := testutil.CreateUser(t, db, models.UserRoleUser)
	service := NewUserService(db)

	user, err := service.GetUserByID(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer.Email, user.Email)

	_, err = service.GetUserByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
