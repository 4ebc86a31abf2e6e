package validator_test

import (
	"errors"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/pkg/validator"
)

type color string

func (c color) Validate() error {
	if c == "red" || c == "blue" {
		return nil
	}
	return errors.New("unknown color")
}

type sample struct {
	Phone string          `validate:"required,dzphone"`
	SKU   string          `validate:"required,sku"`
	Price decimal.Decimal `validate:"gte=0"`
	Color color           `validate:"enum"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	t.Run("Should accept a valid struct", func(t *testing.T) {
		err := v.Validate(sample{
			Phone: "+213 550 12 34 56",
			SKU:   "TSHIRT-XL",
			Price: decimal.RequireFromString("1500.00"),
			Color: "red",
		})
		assert.NoError(t, err)
	})

	t.Run("Should report every invalid field", func(t *testing.T) {
		err := v.Validate(sample{
			Phone: "123",
			SKU:   "bad sku!",
			Price: decimal.NewFromInt(-1),
			Color: "green",
		})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		var verrs govalidator.ValidationErrors
		require.ErrorAs(t, err, &verrs)

		tags := map[string]string{}
		for _, fe := range verrs {
			tags[fe.Field()] = fe.Tag()
		}
		assert.Equal(t, map[string]string{
			"Phone": "dzphone",
			"SKU":   "sku",
			"Price": "gte",
			"Color": "enum",
		}, tags)
		assert.Equal(t, "must be a valid algerian phone number", validator.ValidationErrorMessage(verrs[0]))
	})
}
