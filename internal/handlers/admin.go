// internal/handlers/admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/agrimarket-backend/internal/i18n"
	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

type AdminHandler struct {
	adminService        *services.AdminService
	orderService        *services.OrderService
	notificationService *services.NotificationService
}

type SendFarmerSMSRequest struct {
	Phone   string `json:"phone" validate:"required,phone"`
	Message string `json:"message" validate:"required,max=480"`
}

func NewAdminHandler(adminService *services.AdminService, orderService *services.OrderService, notificationService *services.NotificationService) *AdminHandler {
	return &AdminHandler{
		adminService:        adminService,
		orderService:        orderService,
		notificationService: notificationService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.adminService.GetDashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, dashboard)
}

// GET /admin/orders
func (h *AdminHandler) ListOrders(c *gin.Context) {
	params := services.OrderListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Status:           c.Query("status"),
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params.PaginationParams))
}

// GET /admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// PUT /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	var req services.UpdateOrderStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, adminID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderStatusUpdated, order.Status),
		"order":   order,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	filter := services.AdminUserFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Role:             c.Query("role"),
	}

	users, total, err := h.adminService.GetUsers(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, filter.PaginationParams))
}

// PUT /admin/users/:id/toggle-status
func (h *AdminHandler) ToggleUserStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.adminService.ToggleUserStatus(c.Request.Context(), userID, adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	key := i18n.KeyUserDeactivated
	if user.IsActive {
		key = i18n.KeyUserActivated
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), key),
		"user":    user,
	})
}

// GET /admin/farmers
func (h *AdminHandler) GetFarmers(c *gin.Context) {
	farmers, err := h.adminService.GetFarmers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":   len(farmers),
		"farmers": farmers,
	})
}

// POST /admin/sms/farmer
func (h *AdminHandler) SendFarmerSMS(c *gin.Context) {
	var req SendFarmerSMSRequest
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.notificationService.SendDirect(c.Request.Context(), services.DispatchRequest{
		Channel:   models.NotificationChannelSMS,
		Recipient: models.NotificationRecipientFarmer,
		Contact:   req.Phone,
		Message:   req.Message,
	})

	lang := utils.GetLangFromContext(c)
	if err != nil {
		if record == nil {
			respondServiceError(c, err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadGateway, CodeNotificationFailed, i18n.T(lang, i18n.KeySMSFailed), gin.H{
			"notification": record,
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeySMSSent),
		"notification": record,
	})
}
