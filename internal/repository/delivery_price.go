package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type DeliveryPriceRepository interface {
	WithDB(db db.DB) DeliveryPriceRepository
	// FindPrices returns the wilaya-level price and, when baladiaID is set,
	// the commune override, for one delivery type.
	FindPrices(ctx context.Context, wilayaID int, baladiaID *int, deliveryType model.DeliveryType) ([]model.DeliveryPrice, error)
	UpsertPrice(ctx context.Context, price model.DeliveryPrice) error
	DeletePrice(ctx context.Context, wilayaID int, baladiaID *int, deliveryType model.DeliveryType) error
	ListPrices(ctx context.Context, wilayaID *int) ([]model.DeliveryPrice, error)
}

type deliveryPriceRepository struct {
	db db.DB
}

func NewDeliveryPriceRepository(db db.DB) DeliveryPriceRepository {
	return &deliveryPriceRepository{db: db}
}

func (r deliveryPriceRepository) WithDB(db db.DB) DeliveryPriceRepository {
	return &deliveryPriceRepository{db: db}
}

type deliveryPriceRow struct {
	WilayaID     int             `db:"wilaya_id"`
	BaladiaID    *int            `db:"baladia_id"`
	DeliveryType string          `db:"delivery_type"`
	Price        decimal.Decimal `db:"price"`
}

func (p deliveryPriceRow) toModel() model.DeliveryPrice {
	return model.DeliveryPrice{
		WilayaID:  p.WilayaID,
		BaladiaID: p.BaladiaID,
		Type:      model.DeliveryType(p.DeliveryType),
		Price:     p.Price,
	}
}

func collectDeliveryPrices(rows pgx.Rows) ([]model.DeliveryPrice, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.DeliveryPrice, error) {
		p, err := pgx.RowToStructByName[deliveryPriceRow](row)
		return p.toModel(), err
	})
}

func (r deliveryPriceRepository) FindPrices(ctx context.Context, wilayaID int, baladiaID *int, deliveryType model.DeliveryType) ([]model.DeliveryPrice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT wilaya_id, baladia_id, delivery_type, price
		FROM delivery_prices
		WHERE wilaya_id = @wilaya_id
			AND delivery_type = @delivery_type
			AND (baladia_id IS NULL OR baladia_id = @baladia_id)
	`, pgx.NamedArgs{
		"wilaya_id":     wilayaID,
		"baladia_id":    baladiaID,
		"delivery_type": string(deliveryType),
	})
	if err != nil {
		return nil, fmt.Errorf("query delivery prices: %w", err)
	}

	prices, err := collectDeliveryPrices(rows)
	if err != nil {
		return nil, fmt.Errorf("collect delivery prices: %w", err)
	}

	return prices, nil
}

func (r deliveryPriceRepository) UpsertPrice(ctx context.Context, price model.DeliveryPrice) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO delivery_prices (wilaya_id, baladia_id, delivery_type, price, updated_at)
		VALUES (@wilaya_id, @baladia_id, @delivery_type, @price, NOW())
		ON CONFLICT (wilaya_id, (COALESCE(baladia_id, 0)), delivery_type)
		DO UPDATE SET price = EXCLUDED.price, updated_at = NOW()
	`, pgx.NamedArgs{
		"wilaya_id":     price.WilayaID,
		"baladia_id":    price.BaladiaID,
		"delivery_type": string(price.Type),
		"price":         price.Price,
	})
	if err != nil {
		if db.IsForeignKeyViolation(err, "delivery_prices_baladia_id_fkey") {
			return apperr.BaladiaNotFoundErr.WrapParent(err)
		}
		if db.IsForeignKeyViolation(err, "") {
			return apperr.WilayaNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("upsert delivery price: %w", err)
	}

	return nil
}

func (r deliveryPriceRepository) DeletePrice(ctx context.Context, wilayaID int, baladiaID *int, deliveryType model.DeliveryType) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM delivery_prices
		WHERE wilaya_id = @wilaya_id
			AND COALESCE(baladia_id, 0) = COALESCE(@baladia_id::int, 0)
			AND delivery_type = @delivery_type
	`, pgx.NamedArgs{
		"wilaya_id":     wilayaID,
		"baladia_id":    baladiaID,
		"delivery_type": string(deliveryType),
	})
	if err != nil {
		return fmt.Errorf("delete delivery price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.DeliveryPriceNotFoundErr
	}

	return nil
}

func (r deliveryPriceRepository) ListPrices(ctx context.Context, wilayaID *int) ([]model.DeliveryPrice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT wilaya_id, baladia_id, delivery_type, price
		FROM delivery_prices
		WHERE @wilaya_id::int IS NULL OR wilaya_id = @wilaya_id
		ORDER BY wilaya_id, baladia_id NULLS FIRST, delivery_type
	`, pgx.NamedArgs{"wilaya_id": wilayaID})
	if err != nil {
		return nil, fmt.Errorf("query delivery prices: %w", err)
	}

	prices, err := collectDeliveryPrices(rows)
	if err != nil {
		return nil, fmt.Errorf("collect delivery prices: %w", err)
	}

	return prices, nil
}
