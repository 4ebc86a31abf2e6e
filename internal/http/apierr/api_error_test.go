package apierr_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/http/apierr"
	"github.com/tuanvumaihuynh/orderdesk/pkg/validator"
)

func TestNew(t *testing.T) {
	t.Run("Should map zerrors through wrapping", func(t *testing.T) {
		err := fmt.Errorf("order service ship: %w", apperr.NoShippingAccountErr)
		res := apierr.New(err)
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Equal(t, "NO_SHIPPING_ACCOUNT", res.Code)
		assert.Nil(t, res.Details)
	})

	t.Run("Should list validator field errors", func(t *testing.T) {
		type body struct {
			Name  string `validate:"required"`
			Phone string `validate:"dzphone"`
		}
		verr := validator.MustNewDefaultValidator().Validate(body{Phone: "12"})
		require.Error(t, verr)

		res := apierr.New(apperr.ValidationErr.WrapParent(verr))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.NotNil(t, res.Details)
		assert.Equal(t, []apierr.FieldError{
			{Field: "Name", Message: "field is required"},
			{Field: "Phone", Message: "must be a valid algerian phone number"},
		}, *res.Details)
	})

	t.Run("Should report contract violations on the parameter", func(t *testing.T) {
		err := &openapi3filter.RequestError{
			Parameter: &openapi3.Parameter{Name: "wilaya_id", In: "query"},
			Reason:    "value must be an integer",
		}
		res := apierr.New(err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.NotNil(t, res.Details)
		assert.Equal(t, "wilaya_id", (*res.Details)[0].Field)
	})

	t.Run("Should treat decode errors as bad requests", func(t *testing.T) {
		var v map[string]any
		err := json.Unmarshal([]byte(`{"a":`), &v)
		require.Error(t, err)

		res := apierr.New(err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("Should hide unknown errors", func(t *testing.T) {
		res := apierr.New(fmt.Errorf("dial tcp: refused"))
		assert.Equal(t, apierr.InternalServerErr, res)
	})
}
