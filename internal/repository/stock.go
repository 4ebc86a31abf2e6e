package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type StockRepository interface {
	WithDB(db db.DB) StockRepository
	// ApplyMovement records the movement and moves the product stock by its
	// delta. It fails with InsufficientStockErr instead of going negative.
	ApplyMovement(ctx context.Context, movement model.StockMovement) (int, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockRepository struct {
	db db.DB
}

func NewStockRepository(db db.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r stockRepository) WithDB(db db.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r stockRepository) ApplyMovement(ctx context.Context, movement model.StockMovement) (int, error) {
	var stock int
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET stock = stock + @delta, updated_at = @now
		WHERE id = @product_id AND stock + @delta >= 0
		RETURNING stock
	`, pgx.NamedArgs{
		"delta":      movement.Delta,
		"product_id": movement.ProductID,
		"now":        movement.CreatedAt,
	}).Scan(&stock)
	if err != nil {
		if !db.IsNoRows(err) {
			return 0, fmt.Errorf("update stock: %w", err)
		}

		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = @id)`,
			pgx.NamedArgs{"id": movement.ProductID},
		).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return 0, apperr.ProductNotFoundErr
		}
		return 0, apperr.InsufficientStockErr
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, delta, reason, order_id, note, created_by, created_at)
		VALUES (@id, @product_id, @delta, @reason, @order_id, @note, @created_by, @created_at)
	`, pgx.NamedArgs{
		"id":         movement.ID,
		"product_id": movement.ProductID,
		"delta":      movement.Delta,
		"reason":     string(movement.Reason),
		"order_id":   movement.OrderID,
		"note":       movement.Note,
		"created_by": movement.CreatedBy,
		"created_at": movement.CreatedAt,
	}); err != nil {
		return 0, fmt.Errorf("insert stock movement: %w", err)
	}

	return stock, nil
}

func (r stockRepository) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, delta, reason, order_id, note, created_by, created_at
		FROM stock_movements
		WHERE product_id = @product_id
		ORDER BY created_at DESC
		LIMIT @limit
	`, pgx.NamedArgs{"product_id": productID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("query stock movements: %w", err)
	}

	type movementRow struct {
		ID        uuid.UUID  `db:"id"`
		ProductID uuid.UUID  `db:"product_id"`
		Delta     int        `db:"delta"`
		Reason    string     `db:"reason"`
		OrderID   *uuid.UUID `db:"order_id"`
		Note      string     `db:"note"`
		CreatedBy *uuid.UUID `db:"created_by"`
		CreatedAt time.Time  `db:"created_at"`
	}
	movements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StockMovement, error) {
		m, err := pgx.RowToStructByName[movementRow](row)
		return model.StockMovement{
			ID:        m.ID,
			ProductID: m.ProductID,
			Delta:     m.Delta,
			Reason:    model.MovementReason(m.Reason),
			OrderID:   m.OrderID,
			Note:      m.Note,
			CreatedBy: m.CreatedBy,
			CreatedAt: m.CreatedAt,
		}, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect stock movements: %w", err)
	}

	return movements, nil
}
