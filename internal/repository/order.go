package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type SetShipmentParams struct {
	OrderID           uuid.UUID
	TrackingNumber    string
	ShippingAccountID uuid.UUID
	UpdatedAt         time.Time
}

type OrderRepository interface {
	WithDB(db db.DB) OrderRepository
	CreateOrder(ctx context.Context, order model.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error)
	// GetOrderForUpdate locks the order row until the surrounding transaction ends.
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
	UpdateOrder(ctx context.Context, order model.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, updatedAt time.Time) error
	SetShipment(ctx context.Context, params SetShipmentParams) error
	ExternalRefExists(ctx context.Context, externalRef string) (bool, error)
	// ListRecentByPhones returns non-cancelled orders created since the given
	// time whose phone or phone2 is one of phones.
	ListRecentByPhones(ctx context.Context, phones []string, since time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db db.DB
}

func NewOrderRepository(db db.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r orderRepository) WithDB(db db.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, reference, status, source, external_ref, customer_name, phone, phone2,
	wilaya_id, baladia_id, address, delivery_type, delivery_price, items_total, total, notes,
	duplicate_of, tracking_number, shipping_account_id, created_by, created_at, updated_at`

type orderRow struct {
	ID                uuid.UUID       `db:"id"`
	Reference         string          `db:"reference"`
	Status            string          `db:"status"`
	Source            string          `db:"source"`
	ExternalRef       *string         `db:"external_ref"`
	CustomerName      string          `db:"customer_name"`
	Phone             string          `db:"phone"`
	Phone2            *string         `db:"phone2"`
	WilayaID          int             `db:"wilaya_id"`
	BaladiaID         int             `db:"baladia_id"`
	Address           string          `db:"address"`
	DeliveryType      string          `db:"delivery_type"`
	DeliveryPrice     decimal.Decimal `db:"delivery_price"`
	ItemsTotal        decimal.Decimal `db:"items_total"`
	Total             decimal.Decimal `db:"total"`
	Notes             string          `db:"notes"`
	DuplicateOf       *uuid.UUID      `db:"duplicate_of"`
	TrackingNumber    *string         `db:"tracking_number"`
	ShippingAccountID *uuid.UUID      `db:"shipping_account_id"`
	CreatedBy         *uuid.UUID      `db:"created_by"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (o orderRow) toModel() model.Order {
	return model.Order{
		ID:                o.ID,
		Reference:         o.Reference,
		Status:            model.OrderStatus(o.Status),
		Source:            model.OrderSource(o.Source),
		ExternalRef:       o.ExternalRef,
		CustomerName:      o.CustomerName,
		Phone:             o.Phone,
		Phone2:            o.Phone2,
		WilayaID:          o.WilayaID,
		BaladiaID:         o.BaladiaID,
		Address:           o.Address,
		DeliveryType:      model.DeliveryType(o.DeliveryType),
		DeliveryPrice:     o.DeliveryPrice,
		ItemsTotal:        o.ItemsTotal,
		Total:             o.Total,
		Notes:             o.Notes,
		DuplicateOf:       o.DuplicateOf,
		TrackingNumber:    o.TrackingNumber,
		ShippingAccountID: o.ShippingAccountID,
		CreatedBy:         o.CreatedBy,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Items:             []model.OrderItem{},
	}
}

type orderItemRow struct {
	OrderID   uuid.UUID       `db:"order_id"`
	ProductID uuid.UUID       `db:"product_id"`
	SKU       string          `db:"sku"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

func (r orderRepository) CreateOrder(ctx context.Context, order model.Order) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO orders (`+orderColumns+`)
		VALUES (@id, @reference, @status, @source, @external_ref, @customer_name, @phone, @phone2,
			@wilaya_id, @baladia_id, @address, @delivery_type, @delivery_price, @items_total, @total, @notes,
			@duplicate_of, @tracking_number, @shipping_account_id, @created_by, @created_at, @updated_at)
	`, pgx.NamedArgs{
		"id":                  order.ID,
		"reference":           order.Reference,
		"status":              string(order.Status),
		"source":              string(order.Source),
		"external_ref":        order.ExternalRef,
		"customer_name":       order.CustomerName,
		"phone":               order.Phone,
		"phone2":              order.Phone2,
		"wilaya_id":           order.WilayaID,
		"baladia_id":          order.BaladiaID,
		"address":             order.Address,
		"delivery_type":       string(order.DeliveryType),
		"delivery_price":      order.DeliveryPrice,
		"items_total":         order.ItemsTotal,
		"total":               order.Total,
		"notes":               order.Notes,
		"duplicate_of":        order.DuplicateOf,
		"tracking_number":     order.TrackingNumber,
		"shipping_account_id": order.ShippingAccountID,
		"created_by":          order.CreatedBy,
		"created_at":          order.CreatedAt,
		"updated_at":          order.UpdatedAt,
	})
	for _, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, sku, name, quantity, unit_price)
			VALUES (@order_id, @product_id, @sku, @name, @quantity, @unit_price)
		`, pgx.NamedArgs{
			"order_id":   order.ID,
			"product_id": item.ProductID,
			"sku":        item.SKU,
			"name":       item.Name,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		})
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		switch {
		case db.IsUniqueViolation(err, "orders_external_ref_key"):
			return apperr.OrderExternalRefConflictErr.WrapParent(err)
		case db.IsForeignKeyViolation(err, "orders_baladia_id_fkey"):
			return apperr.BaladiaNotFoundErr.WrapParent(err)
		case db.IsForeignKeyViolation(err, "orders_wilaya_id_fkey"):
			return apperr.WilayaNotFoundErr.WrapParent(err)
		case db.IsForeignKeyViolation(err, "order_items_product_id_fkey"):
			return apperr.ProductNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r orderRepository) GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = @id`, id)
}

func (r orderRepository) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (model.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = @id FOR UPDATE`, id)
}

func (r orderRepository) getOrder(ctx context.Context, query string, id uuid.UUID) (model.Order, error) {
	rows, err := r.db.Query(ctx, query, pgx.NamedArgs{"id": id})
	if err != nil {
		return model.Order{}, fmt.Errorf("query order: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[orderRow])
	if err != nil {
		if db.IsNoRows(err) {
			return model.Order{}, apperr.OrderNotFoundErr
		}
		return model.Order{}, fmt.Errorf("collect order: %w", err)
	}

	orders := []model.Order{row.toModel()}
	if err := r.attachItems(ctx, orders); err != nil {
		return model.Order{}, err
	}

	return orders[0], nil
}

func (r orderRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var search *string
	if filter.Search != nil {
		pattern := containsPattern(*filter.Search)
		search = &pattern
	}

	args := pgx.NamedArgs{
		"status":          filter.Status,
		"wilaya_id":       filter.WilayaID,
		"phone":           filter.Phone,
		"duplicates_only": filter.DuplicatesOnly,
		"from":            filter.From,
		"to":              filter.To,
		"search":          search,
		"limit":           filter.Limit,
		"offset":          filter.Offset,
	}
	where := `
		WHERE (@status::text IS NULL OR status = @status)
			AND (@wilaya_id::int IS NULL OR wilaya_id = @wilaya_id)
			AND (@phone::text IS NULL OR phone = @phone OR phone2 = @phone)
			AND (NOT @duplicates_only OR duplicate_of IS NOT NULL)
			AND (@from::timestamptz IS NULL OR created_at >= @from)
			AND (@to::timestamptz IS NULL OR created_at < @to)
			AND (@search::text IS NULL OR customer_name ILIKE @search OR reference ILIKE @search
				OR tracking_number ILIKE @search)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders`+where+`
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset
	`, args)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r orderRepository) UpdateOrder(ctx context.Context, order model.Order) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE orders SET
			customer_name  = @customer_name,
			phone          = @phone,
			phone2         = @phone2,
			wilaya_id      = @wilaya_id,
			baladia_id     = @baladia_id,
			address        = @address,
			delivery_type  = @delivery_type,
			delivery_price = @delivery_price,
			items_total    = @items_total,
			total          = @total,
			notes          = @notes,
			updated_at     = @updated_at
		WHERE id = @id
	`, pgx.NamedArgs{
		"id":             order.ID,
		"customer_name":  order.CustomerName,
		"phone":          order.Phone,
		"phone2":         order.Phone2,
		"wilaya_id":      order.WilayaID,
		"baladia_id":     order.BaladiaID,
		"address":        order.Address,
		"delivery_type":  string(order.DeliveryType),
		"delivery_price": order.DeliveryPrice,
		"items_total":    order.ItemsTotal,
		"total":          order.Total,
		"notes":          order.Notes,
		"updated_at":     order.UpdatedAt,
	})
	batch.Queue(`DELETE FROM order_items WHERE order_id = @order_id`, pgx.NamedArgs{"order_id": order.ID})
	for _, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, sku, name, quantity, unit_price)
			VALUES (@order_id, @product_id, @sku, @name, @quantity, @unit_price)
		`, pgx.NamedArgs{
			"order_id":   order.ID,
			"product_id": item.ProductID,
			"sku":        item.SKU,
			"name":       item.Name,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		})
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		if db.IsForeignKeyViolation(err, "orders_baladia_id_fkey") {
			return apperr.BaladiaNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("update order: %w", err)
	}

	return nil
}

func (r orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = @status, updated_at = @updated_at WHERE id = @id
	`, pgx.NamedArgs{"id": id, "status": string(status), "updated_at": updatedAt})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.OrderNotFoundErr
	}

	return nil
}

func (r orderRepository) SetShipment(ctx context.Context, params SetShipmentParams) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET tracking_number = @tracking_number,
			shipping_account_id = @shipping_account_id,
			status = @status,
			updated_at = @updated_at
		WHERE id = @id
	`, pgx.NamedArgs{
		"id":                  params.OrderID,
		"tracking_number":     params.TrackingNumber,
		"shipping_account_id": params.ShippingAccountID,
		"status":              string(model.OrderStatusDispatched),
		"updated_at":          params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("set order shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.OrderNotFoundErr
	}

	return nil
}

func (r orderRepository) ExternalRefExists(ctx context.Context, externalRef string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE external_ref = @external_ref)`,
		pgx.NamedArgs{"external_ref": externalRef},
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check external ref: %w", err)
	}

	return exists, nil
}

func (r orderRepository) ListRecentByPhones(ctx context.Context, phones []string, since time.Time) ([]model.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE (phone = ANY(@phones::text[]) OR phone2 = ANY(@phones::text[]))
			AND created_at >= @since
			AND status <> @cancelled
		ORDER BY created_at DESC
	`, pgx.NamedArgs{
		"phones":    phones,
		"since":     since,
		"cancelled": string(model.OrderStatusCancelled),
	})
	if err != nil {
		return nil, fmt.Errorf("query recent orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Order, error) {
		o, err := pgx.RowToStructByName[orderRow](row)
		return o.toModel(), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect orders: %w", err)
	}
	return orders, nil
}

func (r orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := lo.Map(orders, func(o model.Order, _ int) uuid.UUID { return o.ID })
	rows, err := r.db.Query(ctx, `
		SELECT order_id, product_id, sku, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY(@ids::uuid[])
		ORDER BY sku
	`, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[orderItemRow])
	if err != nil {
		return fmt.Errorf("collect order items: %w", err)
	}

	byOrder := lo.GroupBy(items, func(it orderItemRow) uuid.UUID { return it.OrderID })
	for i := range orders {
		for _, it := range byOrder[orders[i].ID] {
			orders[i].Items = append(orders[i].Items, model.OrderItem{
				ProductID: it.ProductID,
				SKU:       it.SKU,
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
	}

	return nil
}
