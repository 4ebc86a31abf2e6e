package db_test

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

func TestPgErrorHelpers(t *testing.T) {
	unique := fmt.Errorf("insert product: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "products_sku_key",
	})

	assert.True(t, db.IsUniqueViolation(unique, "products_sku_key"))
	assert.True(t, db.IsUniqueViolation(unique, ""))
	assert.False(t, db.IsUniqueViolation(unique, "orders_external_ref_key"))
	assert.False(t, db.IsForeignKeyViolation(unique, ""))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "orders_baladia_id_fkey"}
	assert.True(t, db.IsForeignKeyViolation(fk, "orders_baladia_id_fkey"))

	assert.True(t, db.IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, db.IsNoRows(unique))
}
