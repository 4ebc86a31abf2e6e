package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/location"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/sheets"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
	"github.com/tuanvumaihuynh/orderdesk/pkg/zerror"
)

type SheetFetcher interface {
	Fetch(ctx context.Context, src sheets.Source) ([]sheets.Row, error)
}

type ImportFailure struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ImportReport struct {
	Source   string          `json:"source"`
	Total    int             `json:"total"`
	Imported int             `json:"imported"`
	Skipped  int             `json:"skipped"`
	Failed   []ImportFailure `json:"failed"`
}

type ImportService interface {
	// ImportSheet creates an order per new sheet row. Rows already imported
	// are skipped, so a sheet can be imported again as it grows.
	ImportSheet(ctx context.Context, src sheets.Source) (ImportReport, error)
}

type importService struct {
	logger      *slog.Logger
	fetcher     SheetFetcher
	orders      OrderService
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

func NewImportService(
	logger *slog.Logger,
	fetcher SheetFetcher,
	orders OrderService,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
) ImportService {
	return &importService{
		logger:      logger.With(slog.String("service", "import")),
		fetcher:     fetcher,
		orders:      orders,
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

func (s *importService) ImportSheet(ctx context.Context, src sheets.Source) (ImportReport, error) {
	rows, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return ImportReport{}, fmt.Errorf("fetch sheet: %w", err)
	}

	catalogue, err := s.productRepo.ListProducts(ctx, repository.ListProductsParams{ActiveOnly: true})
	if err != nil {
		return ImportReport{}, fmt.Errorf("product repository list products: %w", err)
	}

	report := ImportReport{Source: src.String(), Total: len(rows), Failed: []ImportFailure{}}
	for _, row := range rows {
		ref := src.ExternalRef(row.Line)

		exists, err := s.orderRepo.ExternalRefExists(ctx, ref)
		if err != nil {
			return report, fmt.Errorf("order repository external ref exists: %w", err)
		}
		if exists {
			report.Skipped++
			continue
		}

		params, err := rowToOrder(row, catalogue)
		if err == nil {
			params.ExternalRef = ptr.New(ref)
			_, err = s.orders.CreateOrder(ctx, params)
		}

		var zerr zerror.ZError
		switch {
		case err == nil:
			report.Imported++
		case errors.Is(err, apperr.OrderExternalRefConflictErr):
			report.Skipped++
		case errors.As(err, &zerr):
			report.Failed = append(report.Failed, ImportFailure{Line: row.Line, Reason: zerr.Msg()})
		default:
			return report, fmt.Errorf("import row %d: %w", row.Line, err)
		}
	}

	s.logger.InfoContext(ctx, "sheet imported",
		slog.String("source", report.Source),
		slog.Int("total", report.Total),
		slog.Int("imported", report.Imported),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", len(report.Failed)),
	)

	return report, nil
}

func rowToOrder(row sheets.Row, catalogue []model.Product) (CreateOrderParams, error) {
	product, ok := matchProduct(catalogue, row.Product)
	if !ok {
		return CreateOrderParams{}, apperr.ProductNotFoundErr.WithMsg("unknown product %q", row.Product)
	}

	qty := 1
	if row.Quantity != "" {
		n, err := strconv.Atoi(strings.TrimSpace(row.Quantity))
		if err != nil || n <= 0 {
			return CreateOrderParams{}, apperr.ValidationErr.WithMsg("invalid quantity %q", row.Quantity)
		}
		qty = n
	}

	item := OrderItemParams{ProductID: &product.ID, Quantity: qty}
	if row.Price != "" {
		price, err := parseAmount(row.Price)
		if err != nil {
			return CreateOrderParams{}, apperr.ValidationErr.WithMsg("invalid price %q", row.Price)
		}
		item.UnitPrice = &price
	}

	params := CreateOrderParams{
		Source:       model.OrderSourceSheets,
		CustomerName: row.Name,
		Phone:        row.Phone,
		Wilaya:       row.Wilaya,
		Baladia:      row.Commune,
		Address:      row.Address,
		DeliveryType: parseDeliveryType(row.Delivery),
		Notes:        row.Notes,
		Items:        []OrderItemParams{item},
	}
	if row.Phone2 != "" {
		params.Phone2 = ptr.New(row.Phone2)
	}

	return params, nil
}

// matchProduct finds a product by SKU, then by folded name.
func matchProduct(catalogue []model.Product, text string) (model.Product, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Product{}, false
	}
	for _, p := range catalogue {
		if strings.EqualFold(p.SKU, text) {
			return p, true
		}
	}
	key := location.Normalize(text)
	for _, p := range catalogue {
		if location.Normalize(p.Name) == key {
			return p, true
		}
	}
	return model.Product{}, false
}

var stopDeskWords = []string{"stop", "desk", "bureau", "agence", "relais"}

func parseDeliveryType(s string) model.DeliveryType {
	for _, w := range strings.Fields(location.Normalize(s)) {
		for _, sd := range stopDeskWords {
			if w == sd {
				return model.DeliveryTypeStopDesk
			}
		}
	}
	return model.DeliveryTypeHome
}

// parseAmount reads prices such as "2 500 DA", "2500,00", "2.500,00" or
// "1,234.56". When both separators appear the last one is the decimal
// point. A lone separator followed by exactly three digits groups
// thousands ("2.500" is 2500).
func parseAmount(s string) (decimal.Decimal, error) {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			return r
		}
		return -1
	}, s)

	dot := strings.LastIndexByte(kept, '.')
	comma := strings.LastIndexByte(kept, ',')
	decimalAt := max(dot, comma)
	if decimalAt >= 0 && (dot < 0 || comma < 0) {
		sep := kept[decimalAt]
		if strings.Count(kept, string(sep)) > 1 || len(kept)-decimalAt-1 == 3 {
			decimalAt = -1
		}
	}

	var b strings.Builder
	for i, r := range kept {
		switch {
		case i == decimalAt:
			b.WriteByte('.')
		case unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return decimal.NewFromString(b.String())
}
