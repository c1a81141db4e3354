package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Booking channel on earning rules
	validate.RegisterValidation("booking_method", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), "any", "portal", "brand", "")
	})

	// Cap reset period
	validate.RegisterValidation("cap_period", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), "month", "quarter", "year")
	})

	// Credit reset cycle
	validate.RegisterValidation("credit_cycle", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), "monthly", "quarterly", "semiannual", "annual", "cardmember_year")
	})

	// Billing cycle formula kind
	validate.RegisterValidation("cycle_formula", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), "same_day", "anniversary_offset")
	})
}

func oneOf(s string, valid ...string) bool {
	for _, v := range valid {
		if s == v {
			return true
		}
	}
	return false
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "booking_method":
			errors[field] = "Invalid booking method. Must be: any, portal, or brand"
		case "cap_period":
			errors[field] = "Invalid cap period. Must be: month, quarter, or year"
		case "credit_cycle":
			errors[field] = "Invalid credit cycle. Must be: monthly, quarterly, semiannual, annual, or cardmember_year"
		case "cycle_formula":
			errors[field] = "Invalid cycle formula. Must be: same_day or anniversary_offset"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
