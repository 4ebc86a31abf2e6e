package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/event"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type CreateProductParams struct {
	SKU          string
	Name         string
	Price        decimal.Decimal
	InitialStock int
}

type UpdateProductParams struct {
	Name   mo.Option[string]
	Price  mo.Option[decimal.Decimal]
	Active mo.Option[bool]
}

type ListProductsParams struct {
	ActiveOnly bool
	Search     *string
}

type AdjustStockParams struct {
	ProductID uuid.UUID
	Delta     int
	Reason    model.MovementReason
	Note      string
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	// ListLowStock returns active products at or below threshold, or the
	// configured default when threshold is nil.
	ListLowStock(ctx context.Context, threshold *int) ([]model.Product, error)
	AdjustStock(ctx context.Context, params AdjustStockParams) (model.StockMovement, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type productService struct {
	db                db.DB
	lowStockThreshold int
	productRepo       repository.ProductRepository
	stockRepo         repository.StockRepository
	outboxMsgRepo     repository.OutboxMsgRepository
}

func NewProductService(
	db db.DB,
	lowStockThreshold int,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		db:                db,
		lowStockThreshold: lowStockThreshold,
		productRepo:       productRepo,
		stockRepo:         stockRepo,
		outboxMsgRepo:     outboxMsgRepo,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if strings.TrimSpace(params.Name) == "" {
		return model.Product{}, apperr.ValidationErr.WithMsg("name must not be blank")
	}
	if params.Price.IsNegative() {
		return model.Product{}, apperr.ValidationErr.WithMsg("price must not be negative")
	}
	if params.InitialStock < 0 {
		return model.Product{}, apperr.ValidationErr.WithMsg("initial stock must not be negative")
	}

	id, err := newID()
	if err != nil {
		return model.Product{}, err
	}

	now := time.Now()
	product := model.Product{
		ID:        id,
		SKU:       strings.ToUpper(strings.TrimSpace(params.SKU)),
		Name:      strings.TrimSpace(params.Name),
		Price:     params.Price,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		if err := s.productRepo.
			WithDB(tx).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		if params.InitialStock > 0 {
			movementID, err := newID()
			if err != nil {
				return err
			}
			stock, err := s.stockRepo.
				WithDB(tx).
				ApplyMovement(ctx, model.StockMovement{
					ID:        movementID,
					ProductID: product.ID,
					Delta:     params.InitialStock,
					Reason:    model.MovementRestock,
					Note:      "initial stock",
					CreatedBy: auth.UserIDFromContext(ctx),
					CreatedAt: now,
				})
			if err != nil {
				return fmt.Errorf("stock repository apply movement: %w", err)
			}
			product.Stock = stock
		}

		return writeEvent(ctx, tx, s.outboxMsgRepo, event.TopicProductCreated, product.ID, event.ProductCreatedEvent{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Price:     product.Price,
			Stock:     product.Stock,
		})
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	if name, ok := params.Name.Get(); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return model.Product{}, apperr.ValidationErr.WithMsg("name must not be blank")
		}
		product.Name = name
	}
	if price, ok := params.Price.Get(); ok {
		if price.IsNegative() {
			return model.Product{}, apperr.ValidationErr.WithMsg("price must not be negative")
		}
		product.Price = price
	}
	if active, ok := params.Active.Get(); ok {
		product.Active = active
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("product repository update product: %w", err)
	}

	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	products, err := s.productRepo.ListProducts(ctx, repository.ListProductsParams{
		ActiveOnly: params.ActiveOnly,
		Search:     params.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}
	return products, nil
}

func (s *productService) ListLowStock(ctx context.Context, threshold *int) ([]model.Product, error) {
	limit := s.lowStockThreshold
	if threshold != nil {
		limit = *threshold
	}

	products, err := s.productRepo.ListProducts(ctx, repository.ListProductsParams{
		ActiveOnly: true,
		MaxStock:   &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}
	return products, nil
}

func (s *productService) AdjustStock(ctx context.Context, params AdjustStockParams) (model.StockMovement, error) {
	if !params.Reason.Manual() {
		return model.StockMovement{}, apperr.InvalidMovementErr.WithMsg("reason %q is recorded by order changes only", params.Reason)
	}
	if params.Delta == 0 {
		return model.StockMovement{}, apperr.InvalidMovementErr.WithMsg("delta must not be zero")
	}

	id, err := newID()
	if err != nil {
		return model.StockMovement{}, err
	}
	movement := model.StockMovement{
		ID:        id,
		ProductID: params.ProductID,
		Delta:     params.Delta,
		Reason:    params.Reason,
		Note:      params.Note,
		CreatedBy: auth.UserIDFromContext(ctx),
		CreatedAt: time.Now(),
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		if _, err := s.stockRepo.
			WithDB(tx).
			ApplyMovement(ctx, movement); err != nil {
			return fmt.Errorf("stock repository apply movement: %w", err)
		}
		return nil
	}); err != nil {
		return model.StockMovement{}, fmt.Errorf("db with tx: %w", err)
	}

	return movement, nil
}

func (s *productService) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	movements, err := s.stockRepo.ListMovements(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("stock repository list movements: %w", err)
	}
	return movements, nil
}
