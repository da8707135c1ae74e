// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/agrimarket-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("order_status", validateOrderStatus)
	validate.RegisterValidation("payment_method", validatePaymentMethod)
	validate.RegisterValidation("phone", validatePhone)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// jsonFieldName reports fields by their JSON names so clients can map errors
// back to the request body.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	return models.OrderStatus(fl.Field().String()).IsValid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return models.PaymentMethod(fl.Field().String()).IsValid()
}

// validatePhone accepts digits with an optional leading plus and common
// separators, 7 to 15 digits in total.
func validatePhone(fl validator.FieldLevel) bool {
	phone := strings.TrimSpace(fl.Field().String())
	digits := 0
	for i, char := range phone {
		switch {
		case char >= '0' && char <= '9':
			digits++
		case char == '+' && i == 0:
		case char == ' ' || char == '-' || char == '(' || char == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldPath(e),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// fieldPath drops the root struct name, leaving e.g. "deliveryAddress.city".
func fieldPath(e validator.FieldError) string {
	namespace := e.Namespace()
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return e.Field()
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at least " + e.Param() + " characters"
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at most " + e.Param() + " characters"
		}
		return e.Field() + " must be at most " + e.Param()
	case "order_status":
		return "Status must be one of Pending, Processing, Shipped, Delivered, Cancelled, Refunded"
	case "payment_method":
		return "Payment method must be one of Cash on Delivery, Bank Transfer, Card Payment, Mobile Money"
	case "phone":
		return e.Field() + " must be a valid phone number"
	default:
		return e.Field() + " is invalid"
	}
}
