// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agrimarket-backend/internal/i18n"
	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

// Machine readable error codes returned in the response envelope.
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeProductInactive       = "PRODUCT_INACTIVE"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeNotificationFailed    = "NOTIFICATION_FAILED"
)

// respondServiceError maps workflow errors onto HTTP responses. Anything not
// recognised is logged and reported as an internal error.
func respondServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var inventoryErr *services.InsufficientInventoryError
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, i18n.KeyOrderNotFound)
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, i18n.KeyProductNotFound)
	case errors.Is(err, services.ErrFarmerNotFound):
		utils.NotFoundResponse(c, i18n.KeyFarmerNotFound)
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, i18n.KeyUserNotFound)
	case errors.Is(err, services.ErrCannotDeactivateAdmin):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyUserAdminProtected))
	case errors.As(err, &inventoryErr):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeInsufficientInventory,
			i18n.T(lang, i18n.KeyProductInsufficientStock, inventoryErr.Available),
			gin.H{"available": inventoryErr.Available})
	case errors.Is(err, services.ErrProductInactive):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeProductInactive, i18n.T(lang, i18n.KeyProductInactive), nil)
	case errors.Is(err, services.ErrInvalidStatus):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeInvalidStatus, i18n.T(lang, i18n.KeyOrderInvalidStatus), nil)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeInvalidTransition, i18n.T(lang, i18n.KeyOrderInvalidTransition), nil)
	case errors.Is(err, services.ErrInvalidQuantity):
		utils.ValidationErrorResponse(c, []utils.ValidationError{{
			Field:   "quantity",
			Tag:     "min",
			Message: err.Error(),
		}})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
// It writes the error response itself and reports whether to continue.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, CodeValidation,
			i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.ErrorResponse(c, http.StatusBadRequest, CodeValidation, i18n.T(lang, i18n.KeyInvalidID, resource), nil)
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return userID, true
}
