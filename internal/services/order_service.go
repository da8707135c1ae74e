// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/models"
	"github.com/javajoker/agrimarket-backend/internal/telemetry"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

const orderSequenceName = "orders"

type OrderService struct {
	db        *gorm.DB
	inventory *InventoryService
	notifier  Dispatcher
	cfg       config.OrdersConfig
	metrics   *telemetry.Metrics
	now       func() time.Time
}

type CreateOrderRequest struct {
	ProductID       uuid.UUID              `json:"productId" validate:"required"`
	Quantity        int                    `json:"quantity" validate:"required,min=1"`
	CustomerName    string                 `json:"customerName" validate:"required,max=100"`
	CustomerPhone   string                 `json:"customerPhone" validate:"required,max=30,phone"`
	DeliveryAddress DeliveryAddressRequest `json:"deliveryAddress"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty" validate:"omitempty,payment_method"`
	Notes           string                 `json:"notes,omitempty" validate:"max=500"`
}

type DeliveryAddressRequest struct {
	Street  string `json:"street,omitempty" validate:"max=255"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	Country string `json:"country,omitempty" validate:"max=100"`
	ZipCode string `json:"zipCode,omitempty" validate:"max=20"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note,omitempty" validate:"max=500"`
}

type OrderListParams struct {
	utils.PaginationParams
	Status string
}

func NewOrderService(db *gorm.DB, inventory *InventoryService, notifier Dispatcher, cfg config.OrdersConfig) *OrderService {
	return &OrderService{
		db:        db,
		inventory: inventory,
		notifier:  notifier,
		cfg:       cfg,
		metrics:   telemetry.Default(),
		now:       time.Now,
	}
}

// CreateOrder prices the request, reserves stock and persists the order. A
// reservation is released again if the order cannot be written.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var product models.Product
	if err := s.db.WithContext(ctx).
		Preload("Farmer").Preload("Farmer.User").
		Where("id = ?", req.ProductID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if !product.IsActive {
		return nil, ErrProductInactive
	}

	if product.Inventory.Available < req.Quantity {
		s.metrics.ReservationRejected(ctx)
		return nil, &InsufficientInventoryError{Available: product.Inventory.Available}
	}

	if product.Farmer == nil {
		return nil, ErrFarmerNotFound
	}

	var buyer models.User
	if err := s.db.WithContext(ctx).Where("id = ?", buyerID).First(&buyer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}

	now := s.now()
	order := s.buildOrder(&product, &buyer, req, now)

	if err := s.inventory.Reserve(ctx, product.ID, req.Quantity); err != nil {
		if errors.Is(err, ErrInsufficientInventory) {
			s.metrics.ReservationRejected(ctx)
		}
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextOrderSequence(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = models.FormatOrderNumber(s.cfg.NumberPrefix, now, seq)

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})
	if err != nil {
		if relErr := s.inventory.Release(context.WithoutCancel(ctx), product.ID, req.Quantity); relErr != nil {
			logrus.WithError(relErr).WithFields(logrus.Fields{
				"product_id": product.ID.String(),
				"quantity":   req.Quantity,
			}).Error("Failed to release reservation after order persistence failure")
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	total, _ := order.TotalAmount.Float64()
	s.metrics.OrderCreated(ctx, string(product.Category), total)

	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"user_id":      buyerID.String(),
	}).Info("Order created")

	s.notifyCustomer(ctx, order)

	created, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID.String()).Warn("Failed to reload created order")
		return order, nil
	}
	return created, nil
}

func (s *OrderService) buildOrder(product *models.Product, buyer *models.User, req *CreateOrderRequest, now time.Time) *models.Order {
	unitPrice, discount := product.DiscountedUnitPrice(req.Quantity, now)
	unitPrice = unitPrice.Round(2)
	totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

	paymentMethod := models.PaymentMethod(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethod(s.cfg.DefaultPaymentMethod)
	}

	country := req.DeliveryAddress.Country
	if country == "" {
		country = s.cfg.DefaultCountry
	}

	farmer := product.Farmer

	return &models.Order{
		UserID:    buyer.ID,
		FarmerID:  product.FarmerID,
		ProductID: product.ID,
		OrderDetails: models.OrderDetails{
			ProductName:     product.Name,
			ProductImage:    product.Emoji,
			Quantity:        req.Quantity,
			Unit:            product.Pricing.Unit,
			UnitPrice:       unitPrice,
			TotalPrice:      totalPrice,
			AppliedDiscount: discount,
		},
		CustomerInfo: models.CustomerInfo{
			Name:  req.CustomerName,
			Email: buyer.Email,
			Phone: req.CustomerPhone,
			DeliveryAddress: models.Address{
				Street:  req.DeliveryAddress.Street,
				City:    req.DeliveryAddress.City,
				State:   req.DeliveryAddress.State,
				Country: country,
				ZipCode: req.DeliveryAddress.ZipCode,
			},
		},
		FarmerInfo: models.FarmerInfo{
			Name:     farmer.ContactName(),
			FarmName: farmer.FarmName,
			Phone:    farmer.ContactPhone(),
			Location: farmer.DisplayLocation(),
		},
		Status: models.OrderStatusPending,
		PaymentInfo: models.PaymentInfo{
			Method: paymentMethod,
			Status: models.PaymentStatusPending,
		},
		DeliveryInfo: models.DeliveryInfo{
			Method: models.DeliveryMethodHome,
			Fee:    decimal.Zero,
		},
		Notes:           models.OrderNotes{Customer: req.Notes},
		TotalAmount:     totalPrice,
		ReservationHeld: true,
		StatusHistory: []models.OrderStatusEvent{
			models.NewStatusEvent(models.OrderStatusPending, now, "Order placed", nil),
		},
	}
}

// nextOrderSequence increments the shared counter row. The row lock taken by
// the UPDATE serializes concurrent order transactions.
func nextOrderSequence(tx *gorm.DB) (int64, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderSequence{Name: orderSequenceName}).Error; err != nil {
		return 0, fmt.Errorf("failed to initialize order sequence: %w", err)
	}

	if err := tx.Model(&models.OrderSequence{}).
		Where("name = ?", orderSequenceName).
		UpdateColumn("value", gorm.Expr("value + 1")).Error; err != nil {
		return 0, fmt.Errorf("failed to increment order sequence: %w", err)
	}

	var seq models.OrderSequence
	if err := tx.Where("name = ?", orderSequenceName).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}
	return seq.Value, nil
}

// UpdateOrderStatus lets an admin force any status. Only the value itself is
// validated.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, adminID uuid.UUID, req *UpdateOrderStatusRequest) (*models.Order, error) {
	status := models.OrderStatus(req.Status)
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		now := s.now()

		updates := map[string]interface{}{"status": status}
		if req.Note != "" {
			updates["notes_admin"] = req.Note
		}

		switch status {
		case models.OrderStatusDelivered:
			updates["delivery_actual_delivery"] = now
			order.DeliveryInfo.ActualDelivery = &now
		case models.OrderStatusRefunded:
			updates["payment_status"] = models.PaymentStatusRefunded
			updates["payment_refunded_at"] = now
			order.PaymentInfo.Status = models.PaymentStatusRefunded
			order.PaymentInfo.RefundedAt = &now
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		order.Status = status
		if req.Note != "" {
			order.Notes.Admin = req.Note
		}

		event := models.NewStatusEvent(status, now, req.Note, &adminID)
		event.OrderID = order.ID
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}

		return s.settleReservation(ctx, tx, &order, status)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged(ctx, string(status))

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID.String(),
		"status":   status,
		"admin_id": adminID.String(),
	}).Info("Order status updated")

	// The change is committed; a failed reload must not hide it or skip the
	// farmer notification.
	updated, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID.String()).Warn("Failed to reload updated order")
		updated = &order
	}

	if status == models.OrderStatusProcessing {
		s.notifyFarmer(ctx, updated)
	}

	return updated, nil
}

// settleReservation hands back the order's reserved units when it leaves the
// open statuses: delivery consumes them, cancellation and refund return them.
// The reservation flag is cleared by a conditional UPDATE first, so an order
// settles at most once whatever path its status takes afterwards.
func (s *OrderService) settleReservation(ctx context.Context, tx *gorm.DB, order *models.Order, to models.OrderStatus) error {
	if holdsReservation(to) {
		return nil
	}

	result := tx.Model(&models.Order{}).
		Where("id = ? AND reservation_held = ?", order.ID, true).
		Update("reservation_held", false)
	if result.Error != nil {
		return fmt.Errorf("failed to settle reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil
	}
	order.ReservationHeld = false

	inventory := s.inventory.WithTx(tx)
	quantity := order.OrderDetails.Quantity

	var err error
	if to == models.OrderStatusDelivered {
		err = inventory.Fulfil(ctx, order.ProductID, quantity)
	} else {
		err = inventory.Release(ctx, order.ProductID, quantity)
	}

	if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrInsufficientReserved) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"order_id":   order.ID.String(),
			"product_id": order.ProductID.String(),
			"status":     to,
		}).Warn("Inventory ledger out of step with order")
		return nil
	}
	return err
}

func holdsReservation(status models.OrderStatus) bool {
	return status == models.OrderStatusPending ||
		status == models.OrderStatusProcessing ||
		status == models.OrderStatusShipped
}

// CancelOrder is the buyer's self-service cancellation. Only Pending orders
// qualify; the check and the write are one conditional UPDATE.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", orderID, userID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Update("status", models.OrderStatusCancelled)
		if result.Error != nil {
			return fmt.Errorf("failed to cancel order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		event := models.NewStatusEvent(models.OrderStatusCancelled, s.now(), "Cancelled by customer", &userID)
		event.OrderID = order.ID
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}

		return s.settleReservation(ctx, tx, &order, models.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCancelled(ctx)
	logrus.WithFields(logrus.Fields{
		"order_id": orderID.String(),
		"user_id":  userID.String(),
	}).Info("Order cancelled by customer")

	return s.GetUserOrder(ctx, orderID, userID)
}

// ListUserOrders returns the buyer's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := utils.ApplyPagination(s.withHistory(query), params).
		Order("created_at DESC").Order("order_number DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// GetUserOrder reports ErrOrderNotFound for orders owned by someone else.
func (s *OrderService) GetUserOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.withDetails(s.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// ListOrders is the admin view. An empty status or "all" disables the filter.
func (s *OrderService) ListOrders(ctx context.Context, params OrderListParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if params.Status != "" && params.Status != "all" {
		status := models.OrderStatus(params.Status)
		if !status.IsValid() {
			return nil, 0, ErrInvalidStatus
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := utils.ApplyPagination(s.withHistory(query), params.PaginationParams).
		Preload("Product").
		Order("created_at DESC").Order("order_number DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.withDetails(s.db.WithContext(ctx)).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) withHistory(query *gorm.DB) *gorm.DB {
	return query.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (s *OrderService) withDetails(query *gorm.DB) *gorm.DB {
	return s.withHistory(query).
		Preload("Communication", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Product")
}

func (s *OrderService) notifyCustomer(ctx context.Context, order *models.Order) {
	orderID := order.ID
	details := order.OrderDetails

	s.notifier.Dispatch(ctx, DispatchRequest{
		OrderID:   &orderID,
		Channel:   models.NotificationChannelSMS,
		Recipient: models.NotificationRecipientCustomer,
		Contact:   order.CustomerInfo.Phone,
		Message: fmt.Sprintf(
			"AgriMarket: Order #%s received. %d %s of %s, total N%s. We will let you know once the farmer confirms.",
			order.OrderNumber, details.Quantity, details.Unit, details.ProductName, order.TotalAmount.StringFixed(2),
		),
	})

	if order.CustomerInfo.Email == "" {
		return
	}

	subject, body, err := RenderEmail("order_confirmation", map[string]interface{}{
		"CustomerName":    order.CustomerInfo.Name,
		"OrderNumber":     order.OrderNumber,
		"ProductName":     details.ProductName,
		"Quantity":        details.Quantity,
		"Unit":            details.Unit,
		"UnitPrice":       details.UnitPrice.StringFixed(2),
		"Total":           order.TotalAmount.StringFixed(2),
		"FarmName":        order.FarmerInfo.FarmName,
		"DeliveryAddress": order.FullDeliveryAddress(),
		"PaymentMethod":   order.PaymentInfo.Method,
	})
	if err != nil {
		logrus.WithError(err).WithField("order_id", orderID.String()).Error("Failed to render confirmation email")
		return
	}

	s.notifier.Dispatch(ctx, DispatchRequest{
		OrderID:   &orderID,
		Channel:   models.NotificationChannelEmail,
		Recipient: models.NotificationRecipientCustomer,
		Contact:   order.CustomerInfo.Email,
		Subject:   subject,
		Message:   body,
	})
}

func (s *OrderService) notifyFarmer(ctx context.Context, order *models.Order) {
	phone := order.FarmerInfo.Phone
	if phone == "" {
		var farmer models.Farmer
		if err := s.db.WithContext(ctx).Preload("User").Where("id = ?", order.FarmerID).First(&farmer).Error; err == nil {
			phone = farmer.ContactPhone()
		}
	}

	orderID := order.ID
	address := order.CustomerInfo.DeliveryAddress
	s.notifier.Dispatch(ctx, DispatchRequest{
		OrderID:   &orderID,
		Channel:   models.NotificationChannelSMS,
		Recipient: models.NotificationRecipientFarmer,
		Contact:   phone,
		Message: fmt.Sprintf(
			"AgriMarket Order Alert!\nNew order received:\nProduct: %s\nQuantity: %d %s\nCustomer: %s\nPhone: %s\nDelivery: %s, %s\nOrder ID: #%s\nPlease prepare for delivery. Thank you!",
			order.OrderDetails.ProductName,
			order.OrderDetails.Quantity, order.OrderDetails.Unit,
			order.CustomerInfo.Name,
			order.CustomerInfo.Phone,
			address.City, address.State,
			order.OrderNumber,
		),
	})
}
