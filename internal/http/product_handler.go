package http

import (
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
)

type createProductRequest struct {
	SKU          string          `json:"sku" validate:"required,sku"`
	Name         string          `json:"name" validate:"required,max=200"`
	Price        decimal.Decimal `json:"price" validate:"gte=0"`
	InitialStock int             `json:"initial_stock" validate:"gte=0"`
}

type updateProductRequest struct {
	Name   *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Price  *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Active *bool            `json:"active"`
}

type adjustStockRequest struct {
	Delta  int                  `json:"delta" validate:"required"`
	Reason model.MovementReason `json:"reason" validate:"required,enum"`
	Note   string               `json:"note" validate:"max=500"`
}

func (s *Service) listProducts(r *http.Request) (response, error) {
	q := r.URL.Query()
	var (
		params     service.ListProductsParams
		activeOnly *bool
	)
	if err := queryParam(q, "active", &activeOnly); err != nil {
		return response{}, err
	}
	if err := queryParam(q, "search", &params.Search); err != nil {
		return response{}, err
	}
	params.ActiveOnly = activeOnly != nil && *activeOnly

	products, err := s.productSvc.ListProducts(r.Context(), params)
	if err != nil {
		return response{}, fmt.Errorf("product service list products: %w", err)
	}
	return ok(list(products)), nil
}

func (s *Service) createProduct(r *http.Request) (response, error) {
	var req createProductRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	product, err := s.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		SKU:          req.SKU,
		Name:         req.Name,
		Price:        req.Price,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		return response{}, fmt.Errorf("product service create product: %w", err)
	}
	return created(product), nil
}

func (s *Service) getProduct(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	product, err := s.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("product service get product: %w", err)
	}
	return ok(product), nil
}

func (s *Service) updateProduct(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req updateProductRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	product, err := s.productSvc.UpdateProduct(r.Context(), id, service.UpdateProductParams{
		Name:   mo.PointerToOption(req.Name),
		Price:  mo.PointerToOption(req.Price),
		Active: mo.PointerToOption(req.Active),
	})
	if err != nil {
		return response{}, fmt.Errorf("product service update product: %w", err)
	}
	return ok(product), nil
}

func (s *Service) listLowStock(r *http.Request) (response, error) {
	var threshold *int
	if err := queryParam(r.URL.Query(), "threshold", &threshold); err != nil {
		return response{}, err
	}

	products, err := s.productSvc.ListLowStock(r.Context(), threshold)
	if err != nil {
		return response{}, fmt.Errorf("product service list low stock: %w", err)
	}
	return ok(list(products)), nil
}

func (s *Service) adjustStock(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req adjustStockRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	movement, err := s.productSvc.AdjustStock(r.Context(), service.AdjustStockParams{
		ProductID: id,
		Delta:     req.Delta,
		Reason:    req.Reason,
		Note:      req.Note,
	})
	if err != nil {
		return response{}, fmt.Errorf("product service adjust stock: %w", err)
	}
	return created(movement), nil
}

func (s *Service) listMovements(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var limit *int
	if err := queryParam(r.URL.Query(), "limit", &limit); err != nil {
		return response{}, err
	}

	movements, err := s.productSvc.ListMovements(r.Context(), id, lo.FromPtrOr(limit, defaultPageSize))
	if err != nil {
		return response{}, fmt.Errorf("product service list movements: %w", err)
	}
	return ok(list(movements)), nil
}
