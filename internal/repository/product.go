package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type ListProductsParams struct {
	ActiveOnly bool
	Search     *string
	// MaxStock keeps products whose stock is at most this value.
	MaxStock *int
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	UpdateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, sku, name, price, active, stock, created_at, updated_at`

type productRow struct {
	ID        uuid.UUID       `db:"id"`
	SKU       string          `db:"sku"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Active    bool            `db:"active"`
	Stock     int             `db:"stock"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
		p, err := pgx.RowToStructByName[productRow](row)
		return model.Product(p), err
	})
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (@id, @sku, @name, @price, @active, @stock, @created_at, @updated_at)
	`, pgx.NamedArgs{
		"id":         product.ID,
		"sku":        product.SKU,
		"name":       product.Name,
		"price":      product.Price,
		"active":     product.Active,
		"stock":      product.Stock,
		"created_at": product.CreatedAt,
		"updated_at": product.UpdatedAt,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "products_sku_key") {
			return apperr.ProductSKUConflictErr.WrapParent(err)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// UpdateProduct writes the descriptive fields; stock only moves through the
// stock repository.
func (r productRepository) UpdateProduct(ctx context.Context, product model.Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET sku = @sku, name = @name, price = @price, active = @active, updated_at = @updated_at
		WHERE id = @id
	`, pgx.NamedArgs{
		"id":         product.ID,
		"sku":        product.SKU,
		"name":       product.Name,
		"price":      product.Price,
		"active":     product.Active,
		"updated_at": product.UpdatedAt,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "products_sku_key") {
			return apperr.ProductSKUConflictErr.WrapParent(err)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr
	}

	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = @key`, id)
}

func (r productRepository) GetProductBySKU(ctx context.Context, sku string) (model.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE LOWER(sku) = LOWER(@key)`, sku)
}

func (r productRepository) getOne(ctx context.Context, query string, key any) (model.Product, error) {
	rows, err := r.db.Query(ctx, query, pgx.NamedArgs{"key": key})
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		if db.IsNoRows(err) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	return model.Product(p), nil
}

func (r productRepository) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY(@ids::uuid[])
	`, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}

func (r productRepository) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	var search *string
	if params.Search != nil {
		pattern := containsPattern(*params.Search)
		search = &pattern
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE (NOT @active_only OR active)
			AND (@search::text IS NULL OR name ILIKE @search OR sku ILIKE @search)
			AND (@max_stock::int IS NULL OR stock <= @max_stock)
		ORDER BY name
	`, pgx.NamedArgs{
		"active_only": params.ActiveOnly,
		"search":      search,
		"max_stock":   params.MaxStock,
	})
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}
