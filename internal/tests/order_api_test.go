// internal/tests/order_api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/i18n"
	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/router"
	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/testutil"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

type orderEnvelope struct {
	Message string       `json:"message"`
	Order   models.Order `json:"order"`
}

type OrderAPITestSuite struct {
	suite.Suite
	db         *gorm.DB
	router     *gin.Engine
	buyer      *models.User
	admin      *models.User
	farmer     *models.Farmer
	buyerToken string
	adminToken string
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Orders: config.OrdersConfig{
			NumberPrefix:         "AGT",
			DefaultCountry:       "Nigeria",
			DefaultPaymentMethod: string(models.PaymentMethodCashOnDelivery),
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, OrdersPerMinute: 1000},
		I18n:      config.I18nConfig{DefaultLocale: "en"},
		Telemetry: config.TelemetryConfig{ServiceVersion: "test"},
	}
}

func (suite *OrderAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("en"))
	utils.SetJWTSecret("test-secret")
	utils.SetJWTIssuer("agrimarket")
}

func (suite *OrderAPITestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())

	cfg := testConfig()
	notifications := services.NewNotificationService(suite.db,
		services.NewLogSender(models.NotificationChannelSMS),
		services.NewLogSender(models.NotificationChannelEmail),
	)
	suite.router = router.Initialize(cfg, router.NewServices(suite.db, cfg, notifications), nil)

	suite.buyer = testutil.CreateUser(suite.T(), suite.db, models.UserRoleUser)
	suite.admin = testutil.CreateUser(suite.T(), suite.db, models.UserRoleAdmin)
	suite.farmer = testutil.CreateFarmer(suite.T(), suite.db)
	suite.buyerToken = suite.token(suite.buyer)
	suite.adminToken = suite.token(suite.admin)
}

func (suite *OrderAPITestSuite) token(user *models.User) string {
	token, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), time.Hour)
	suite.Require().NoError(err)
	return token
}

func (suite *OrderAPITestSuite) request(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	var payload bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&payload).Encode(body))
	}

	req, _ := http.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response apiResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w, response
}

func (suite *OrderAPITestSuite) orderBody(productID uuid.UUID, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"productId":     productID.String(),
		"quantity":      quantity,
		"customerName":  "Tunde Okafor",
		"customerPhone": testutil.BuyerPhone,
		"deliveryAddress": map[string]interface{}{
			"street": "12 Market Road",
			"city":   "Ibadan",
			"state":  "Oyo",
		},
	}
}

func (suite *OrderAPITestSuite) createOrder(productID uuid.UUID, quantity int) models.Order {
	w, response := suite.request(http.MethodPost, "/api/v1/orders", suite.buyerToken, suite.orderBody(productID, quantity))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created orderEnvelope
	suite.Require().NoError(json.Unmarshal(response.Data, &created))
	return created.Order
}

func (suite *OrderAPITestSuite) TestCreateOrder() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer, testutil.WithAvailable(10))

	w, response := suite.request(http.MethodPost, "/api/v1/orders", suite.buyerToken, suite.orderBody(product.ID, 3))
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.True(suite.T(), response.Success)

	var created orderEnvelope
	suite.Require().NoError(json.Unmarshal(response.Data, &created))
	assert.Equal(suite.T(), models.OrderStatusPending, created.Order.Status)
	assert.Equal(suite.T(), "3000", created.Order.TotalAmount.String())
	assert.Equal(suite.T(), "Nigeria", created.Order.CustomerInfo.DeliveryAddress.Country)
	assert.Len(suite.T(), created.Order.StatusHistory, 1)
	assert.Len(suite.T(), created.Order.Communication, 2)

	state := testutil.Inventory(suite.T(), suite.db, product.ID)
	assert.Equal(suite.T(), 7, state.Available)
	assert.Equal(suite.T(), 3, state.Reserved)
}

func (suite *OrderAPITestSuite) TestCreateOrderRequiresAuth() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer)

	w, response := suite.request(http.MethodPost, "/api/v1/orders", "", suite.orderBody(product.ID, 1))
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.False(suite.T(), response.Success)

	w, _ = suite.request(http.MethodPost, "/api/v1/orders", "not-a-token", suite.orderBody(product.ID, 1))
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *OrderAPITestSuite) TestCreateOrderValidation() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer)

	body := suite.orderBody(product.ID, 0)
	body["customerPhone"] = "call me"
	delete(body["deliveryAddress"].(map[string]interface{}), "city")

	w, response := suite.request(http.MethodPost, "/api/v1/orders", suite.buyerToken, body)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	suite.Require().NotNil(response.Error)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)

	var fields []utils.ValidationError
	suite.Require().NoError(json.Unmarshal(response.Error.Details, &fields))
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Field)
	}
	assert.ElementsMatch(suite.T(), []string{"quantity", "customerPhone", "deliveryAddress.city"}, names)

	body = suite.orderBody(product.ID, 1)
	body["paymentMethod"] = "Cheque"
	w, response = suite.request(http.MethodPost, "/api/v1/orders", suite.buyerToken, body)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)
}

func (suite *OrderAPITestSuite) TestCreateOrderErrors() {
	scarce := testutil.CreateProduct(suite.T(), suite.db, suite.farmer, testutil.WithAvailable(2))
	inactive := testutil.CreateProduct(suite.T(), suite.db, suite.farmer, testutil.Inactive())

	w, response := suite.request(http.MethodPost, "/api/v1/orders", suite.buyerToken, suite.orderBody(scarce.ID, 5))
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INSUFFICIENT_INVENTORY", response.Error.Code)
	assert.JSONEq(suite.T(), `{"available":2}`, string(response.Error.Details))

	w, response = suite.request(http.MethodPost, "/api/v1/orders", suite.buyerToken, suite.orderBody(inactive.ID, 1))
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "PRODUCT_INACTIVE", response.Error.Code)

	w, response = suite.request(http.MethodPost, "/api/v1/orders", suite.buyerToken, suite.orderBody(uuid.New(), 1))
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", response.Error.Code)
}

func (suite *OrderAPITestSuite) TestBuyerOrders() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer, testutil.WithAvailable(10))
	order := suite.createOrder(product.ID, 3)

	w, response := suite.request(http.MethodGet, "/api/v1/orders", suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var orders []models.Order
	suite.Require().NoError(json.Unmarshal(response.Data, &orders))
	suite.Require().Len(orders, 1)
	assert.Equal(suite.T(), order.ID, orders[0].ID)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))

	w, _ = suite.request(http.MethodGet, "/api/v1/orders/"+order.ID.String(), suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	stranger := testutil.CreateUser(suite.T(), suite.db, models.UserRoleUser)
	w, response = suite.request(http.MethodGet, "/api/v1/orders/"+order.ID.String(), suite.token(stranger), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", response.Error.Code)

	w, response = suite.request(http.MethodGet, "/api/v1/orders/not-a-uuid", suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)
}

func (suite *OrderAPITestSuite) TestCancelOrder() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer, testutil.WithAvailable(10))
	order := suite.createOrder(product.ID, 3)

	w, response := suite.request(http.MethodPut, "/api/v1/orders/"+order.ID.String()+"/cancel", suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var cancelled orderEnvelope
	suite.Require().NoError(json.Unmarshal(response.Data, &cancelled))
	assert.Equal(suite.T(), models.OrderStatusCancelled, cancelled.Order.Status)
	assert.Len(suite.T(), cancelled.Order.StatusHistory, 2)

	state := testutil.Inventory(suite.T(), suite.db, product.ID)
	assert.Equal(suite.T(), 10, state.Available)
	assert.Equal(suite.T(), 0, state.Reserved)

	w, response = suite.request(http.MethodPut, "/api/v1/orders/"+order.ID.String()+"/cancel", suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_TRANSITION", response.Error.Code)
}

func (suite *OrderAPITestSuite) TestAdminRoutesRequireAdmin() {
	w, response := suite.request(http.MethodGet, "/api/v1/admin/orders", suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	assert.Equal(suite.T(), "FORBIDDEN", response.Error.Code)

	w, _ = suite.request(http.MethodGet, "/api/v1/admin/dashboard", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *OrderAPITestSuite) TestAdminUpdateStatus() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer)
	order := suite.createOrder(product.ID, 2)
	path := "/api/v1/admin/orders/" + order.ID.String() + "/status"

	w, response := suite.request(http.MethodPut, path, suite.adminToken, map[string]string{
		"status": "Processing",
		"note":   "Farmer confirmed",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var updated orderEnvelope
	suite.Require().NoError(json.Unmarshal(response.Data, &updated))
	assert.Equal(suite.T(), models.OrderStatusProcessing, updated.Order.Status)
	suite.Require().Len(updated.Order.StatusHistory, 2)
	assert.Equal(suite.T(), suite.admin.ID, *updated.Order.StatusHistory[1].UpdatedBy)

	var farmerMessages int64
	suite.Require().NoError(suite.db.Model(&models.OrderNotification{}).
		Where("order_id = ? AND recipient = ?", order.ID, models.NotificationRecipientFarmer).
		Count(&farmerMessages).Error)
	assert.Equal(suite.T(), int64(1), farmerMessages)

	w, response = suite.request(http.MethodPut, path, suite.adminToken, map[string]string{"status": "Lost"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_STATUS", response.Error.Code)

	w, response = suite.request(http.MethodPut, "/api/v1/admin/orders/"+uuid.NewString()+"/status", suite.adminToken, map[string]string{"status": "Shipped"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", response.Error.Code)
}

func (suite *OrderAPITestSuite) TestAdminListOrdersAndDashboard() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer)
	suite.createOrder(product.ID, 1)
	suite.createOrder(product.ID, 1)

	w, response := suite.request(http.MethodGet, "/api/v1/admin/orders?status=Pending&limit=1", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var orders []models.Order
	suite.Require().NoError(json.Unmarshal(response.Data, &orders))
	assert.Len(suite.T(), orders, 1)
	assert.JSONEq(suite.T(), `{"pagination":{"page":1,"limit":1,"total":2,"totalPages":2}}`, string(response.Meta))

	w, response = suite.request(http.MethodGet, "/api/v1/admin/orders?status=Lost", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_STATUS", response.Error.Code)

	w, response = suite.request(http.MethodGet, "/api/v1/admin/dashboard", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var dashboard services.AdminDashboard
	suite.Require().NoError(json.Unmarshal(response.Data, &dashboard))
	assert.Equal(suite.T(), int64(2), dashboard.Stats.PendingOrders)
	assert.Len(suite.T(), dashboard.RecentOrders, 2)
}

func (suite *OrderAPITestSuite) TestAdminSendFarmerSMS() {
	w, response := suite.request(http.MethodPost, "/api/v1/admin/sms/farmer", suite.adminToken, map[string]string{
		"phone":   testutil.FarmerPhone,
		"message": "Please confirm tomorrow's pickup",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), response.Success)

	var record models.OrderNotification
	suite.Require().NoError(suite.db.Where("recipient = ?", models.NotificationRecipientFarmer).First(&record).Error)
	assert.Equal(suite.T(), models.NotificationStatusSent, record.Status)
	assert.Nil(suite.T(), record.OrderID)

	w, response = suite.request(http.MethodPost, "/api/v1/admin/sms/farmer", suite.adminToken, map[string]string{"message": "no phone"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)
}

func (suite *OrderAPITestSuite) TestAdminUserManagement() {
	w, response := suite.request(http.MethodGet, "/api/v1/admin/users?role=user", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var users []models.User
	suite.Require().NoError(json.Unmarshal(response.Data, &users))
	suite.Require().Len(users, 1)
	assert.Equal(suite.T(), suite.buyer.ID, users[0].ID)

	w, response = suite.request(http.MethodGet, "/api/v1/admin/users?limit=2", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"pagination":{"page":1,"limit":2,"total":3,"totalPages":2}}`, string(response.Meta))

	path := "/api/v1/admin/users/" + suite.buyer.ID.String() + "/toggle-status"
	w, response = suite.request(http.MethodPut, path, suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var toggled struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &toggled))
	assert.False(suite.T(), toggled.User.IsActive)
	assert.Equal(suite.T(), "User deactivated successfully", toggled.Message)

	w, response = suite.request(http.MethodPut, "/api/v1/admin/users/"+suite.admin.ID.String()+"/toggle-status", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	assert.Equal(suite.T(), "FORBIDDEN", response.Error.Code)
	assert.Equal(suite.T(), "Cannot deactivate admin users", response.Error.Message)

	w, _ = suite.request(http.MethodPut, "/api/v1/admin/users/"+uuid.NewString()+"/toggle-status", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodGet, "/api/v1/admin/users", suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *OrderAPITestSuite) TestAdminFarmers() {
	suite.Require().NoError(suite.db.Model(suite.farmer).Update("is_verified", false).Error)

	w, response := suite.request(http.MethodGet, "/api/v1/admin/farmers", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var listing struct {
		Count   int             `json:"count"`
		Farmers []models.Farmer `json:"farmers"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &listing))
	assert.Equal(suite.T(), 1, listing.Count)
	suite.Require().Len(listing.Farmers, 1)
	assert.False(suite.T(), listing.Farmers[0].IsVerified)
	suite.Require().NotNil(listing.Farmers[0].User)
	assert.Equal(suite.T(), testutil.FarmerPhone, listing.Farmers[0].User.Phone)
}

func (suite *OrderAPITestSuite) TestUserProfile() {
	w, response := suite.request(http.MethodGet, "/api/v1/users/profile", suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var profile struct {
		User models.User `json:"user"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &profile))
	assert.Equal(suite.T(), suite.buyer.ID, profile.User.ID)
	assert.Equal(suite.T(), suite.buyer.Email, profile.User.Email)

	w, _ = suite.request(http.MethodGet, "/api/v1/users/profile", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *OrderAPITestSuite) TestCatalogRoutes() {
	product := testutil.CreateProduct(suite.T(), suite.db, suite.farmer)

	w, response := suite.request(http.MethodGet, "/api/v1/products?category=Vegetables", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var products []models.Product
	suite.Require().NoError(json.Unmarshal(response.Data, &products))
	suite.Require().Len(products, 1)
	assert.Equal(suite.T(), product.ID, products[0].ID)

	w, _ = suite.request(http.MethodGet, "/api/v1/products/"+product.ID.String(), "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, _ = suite.request(http.MethodGet, "/api/v1/farmers?state=Kaduna", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, response = suite.request(http.MethodGet, "/api/v1/farmers/"+uuid.NewString(), "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", response.Error.Code)
}

func (suite *OrderAPITestSuite) TestUnknownRouteAndLocale() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/nowhere", nil)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	var response apiResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), i18n.T("fr", i18n.KeyRouteNotFound), response.Error.Message)
	assert.NotEqual(suite.T(), i18n.T("en", i18n.KeyRouteNotFound), response.Error.Message)
}

func (suite *OrderAPITestSuite) TestHealth() {
	w, _ := suite.request(http.MethodGet, "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func TestOrderAPITestSuite(t *testing.T) {
	suite.Run(t, new(OrderAPITestSuite))
}
