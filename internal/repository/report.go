package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type ReportRepository interface {
	WithDB(db db.DB) ReportRepository
	// Summary aggregates orders created in [from, to).
	Summary(ctx context.Context, from, to time.Time, topWilayas int) (model.Summary, error)
}

type reportRepository struct {
	db db.DB
}

func NewReportRepository(db db.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r reportRepository) WithDB(db db.DB) ReportRepository {
	return &reportRepository{db: db}
}

type statusSummaryRow struct {
	Status string          `db:"status"`
	Count  int             `db:"count"`
	Total  decimal.Decimal `db:"total"`
}

type wilayaSummaryRow struct {
	WilayaID int    `db:"wilaya_id"`
	Name     string `db:"name"`
	Count    int    `db:"count"`
}

func (r reportRepository) Summary(ctx context.Context, from, to time.Time, topWilayas int) (model.Summary, error) {
	args := pgx.NamedArgs{"from": from, "to": to, "top": topWilayas}
	summary := model.Summary{
		From:             from,
		To:               to,
		ByStatus:         []model.StatusSummary{},
		DeliveredRevenue: decimal.Zero,
		DeliveryFees:     decimal.Zero,
		TopWilayas:       []model.WilayaSummary{},
	}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)::int,
			COALESCE(SUM(items_total) FILTER (WHERE status = 'delivered'), 0),
			COALESCE(SUM(delivery_price) FILTER (WHERE status = 'delivered'), 0),
			COUNT(*) FILTER (WHERE duplicate_of IS NOT NULL)::int
		FROM orders
		WHERE created_at >= @from AND created_at < @to
	`, args).Scan(&summary.Orders, &summary.DeliveredRevenue, &summary.DeliveryFees, &summary.Duplicates)
	if err != nil {
		return model.Summary{}, fmt.Errorf("query order totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)::int AS count, COALESCE(SUM(total), 0) AS total
		FROM orders
		WHERE created_at >= @from AND created_at < @to
		GROUP BY status
		ORDER BY status
	`, args)
	if err != nil {
		return model.Summary{}, fmt.Errorf("query status summary: %w", err)
	}
	byStatus, err := pgx.CollectRows(rows, pgx.RowToStructByName[statusSummaryRow])
	if err != nil {
		return model.Summary{}, fmt.Errorf("collect status summary: %w", err)
	}
	for _, s := range byStatus {
		summary.ByStatus = append(summary.ByStatus, model.StatusSummary{
			Status: model.OrderStatus(s.Status),
			Count:  s.Count,
			Total:  s.Total,
		})
	}

	rows, err = r.db.Query(ctx, `
		SELECT o.wilaya_id, w.name, COUNT(*)::int AS count
		FROM orders o
		JOIN wilayas w ON w.id = o.wilaya_id
		WHERE o.created_at >= @from AND o.created_at < @to
		GROUP BY o.wilaya_id, w.name
		ORDER BY count DESC, o.wilaya_id
		LIMIT @top
	`, args)
	if err != nil {
		return model.Summary{}, fmt.Errorf("query wilaya summary: %w", err)
	}
	byWilaya, err := pgx.CollectRows(rows, pgx.RowToStructByName[wilayaSummaryRow])
	if err != nil {
		return model.Summary{}, fmt.Errorf("collect wilaya summary: %w", err)
	}
	for _, w := range byWilaya {
		summary.TopWilayas = append(summary.TopWilayas, model.WilayaSummary(w))
	}

	return summary, nil
}
