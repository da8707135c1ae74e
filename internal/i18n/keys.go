// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess          = "success"
	KeyError            = "error"
	KeyInternalError    = "error.internal"
	KeyRateLimited      = "error.rate_limited"
	KeyInvalidID        = "error.invalid_id"
	KeyHealthOK         = "health.ok"
	KeyRouteNotFound    = "error.route_not_found"
	KeyMethodNotAllowed = "error.method_not_allowed"

	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthTokenExpired  = "auth.token_expired"
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// Products
	KeyProductNotFound          = "product.not_found"
	KeyProductInactive          = "product.inactive"
	KeyProductInsufficientStock = "product.insufficient_inventory"

	// Farmers
	KeyFarmerNotFound = "farmer.not_found"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserActivated      = "user.activated"
	KeyUserDeactivated    = "user.deactivated"
	KeyUserAdminProtected = "user.admin_protected"

	// Orders
	KeyOrderNotFound          = "order.not_found"
	KeyOrderCreated           = "order.created"
	KeyOrderCancelled         = "order.cancelled"
	KeyOrderStatusUpdated     = "order.status_updated"
	KeyOrderInvalidStatus     = "order.invalid_status"
	KeyOrderInvalidTransition = "order.invalid_transition"

	// Notifications
	KeySMSSent   = "sms.sent"
	KeySMSFailed = "sms.failed"
)
