package validator

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/pkg/dzphone"
)

var (
	AlphaNumberSpaceRegex = regexp.MustCompile("^[a-zA-Z0-9 ]+$")
	SKURegex              = regexp.MustCompile("^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$")
)

// Validator is a validator that validates the given struct.
type Validator interface {
	// Validate validates the given struct
	Validate(s any) error
}

type DefaultValidator struct {
	v *validator.Validate
}

// NewDefaultValidator creates a new default validator.
// It returns a new DefaultValidator and an error if the validator registration fails.
func NewDefaultValidator() (*DefaultValidator, error) {
	v := validator.New()

	// decimal.Decimal is validated through its float value so gte/lte work on it.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	validations := map[string]validator.Func{
		"alphanumspace": validateAlphanumspace,
		"enum":          validateEnum,
		"dzphone":       validateDZPhone,
		"sku":           validateSKU,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s validator: %w", tag, err)
		}
	}

	return &DefaultValidator{v: v}, nil
}

// MustNewDefaultValidator is NewDefaultValidator for package-level setup.
func MustNewDefaultValidator() *DefaultValidator {
	v, err := NewDefaultValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func (v DefaultValidator) Validate(s any) error {
	return v.v.Struct(s)
}

// IsValidationError checks if the given error is a validation error
func IsValidationError(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}

func ValidationErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "alphanumspace":
		return "must contain only alphanumeric characters and spaces"
	case "url":
		return "must be a valid URL"
	case "enum":
		return fmt.Sprintf("invalid enum value: %s", fe.Value())
	case "dzphone":
		return "must be a valid algerian phone number"
	case "sku":
		return "must contain only letters, digits, '-' and '_'"
	default:
		return "is invalid"
	}
}

func validateAlphanumspace(fl validator.FieldLevel) bool {
	return AlphaNumberSpaceRegex.MatchString(fl.Field().String())
}

func validateSKU(fl validator.FieldLevel) bool {
	return SKURegex.MatchString(fl.Field().String())
}

func validateDZPhone(fl validator.FieldLevel) bool {
	_, err := dzphone.Normalize(fl.Field().String())
	return err == nil
}

func validateEnum(fl validator.FieldLevel) bool {
	type Enum interface {
		Validate() error
	}

	value, ok := fl.Field().Interface().(Enum)
	if !ok {
		return false
	}

	return value.Validate() == nil
}
