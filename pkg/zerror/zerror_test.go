package zerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/pkg/zerror"
)

func TestZError(t *testing.T) {
	notFound := zerror.NewNotFound("ORDER_NOT_FOUND", "order not found")

	t.Run("Should match predefined error after wrapping", func(t *testing.T) {
		cause := errors.New("no rows")
		err := fmt.Errorf("get order: %w", notFound.WrapParent(cause))

		assert.ErrorIs(t, err, notFound)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Should keep code and status when message changes", func(t *testing.T) {
		err := notFound.WithMsg("order %s not found", "ORD-1")

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, "ORDER_NOT_FOUND", zErr.Code())
		assert.Equal(t, zerror.StatusNotFound, zErr.Status())
		assert.Equal(t, "order ORD-1 not found", zErr.Msg())
		assert.ErrorIs(t, err, notFound)
	})

	t.Run("Should not match a different code", func(t *testing.T) {
		other := zerror.NewNotFound("PRODUCT_NOT_FOUND", "product not found")
		assert.NotErrorIs(t, notFound, other)
	})

	t.Run("Should render status names", func(t *testing.T) {
		assert.Equal(t, "CONFLICT", zerror.StatusConflict.String())
		assert.Equal(t, "UNKNOWN", zerror.Status(200).String())
	})
}
