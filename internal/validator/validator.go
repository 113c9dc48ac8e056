package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ErrRequired      = "is required"
	ErrEmail         = "must be a valid email address"
	ErrMinValue      = "must be greater than or equal to %s"
	ErrMaxValue      = "must be less than or equal to %s"
	ErrMinItems      = "must contain at least %s item(s)"
	ErrMaxItems      = "must contain at most %s item(s)"
	ErrUniqueItems   = "must not contain duplicate values"
	ErrSeatLabel     = "must be a seat label such as A1"
	ErrInvalidFormat = "is invalid"
)

var seatLabelRgx = regexp.MustCompile(`^[A-Z][1-9][0-9]*$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seat", validateSeatLabel)

	// Report fields by their JSON name so that errors match the request payload.
	validator.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		if name == "" {
			return field.Name
		}

		return name
	})

	return validator
}

func validateSeatLabel(fl validator.FieldLevel) bool {
	return seatLabelRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return ErrRequired
	case "email":
		return ErrEmail
	case "min":
		if isCollection(err) {
			return fmt.Sprintf(ErrMinItems, err.Param())
		}
		return fmt.Sprintf(ErrMinValue, err.Param())
	case "max":
		if isCollection(err) {
			return fmt.Sprintf(ErrMaxItems, err.Param())
		}
		return fmt.Sprintf(ErrMaxValue, err.Param())
	case "unique":
		return ErrUniqueItems
	case "seat":
		return ErrSeatLabel
	default:
		return ErrInvalidFormat
	}
}

func isCollection(err validator.FieldError) bool {
	switch err.Kind().String() {
	case "slice", "array", "map":
		return true
	}

	return false
}
