package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type LocationRepository interface {
	WithDB(db db.DB) LocationRepository
	ListWilayas(ctx context.Context) ([]model.Wilaya, error)
	ListBaladias(ctx context.Context, wilayaID int) ([]model.Baladia, error)
	GetBaladia(ctx context.Context, id int) (model.Baladia, error)
	UpsertBaladias(ctx context.Context, baladias []model.Baladia) error
}

type locationRepository struct {
	db db.DB
}

func NewLocationRepository(db db.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r locationRepository) WithDB(db db.DB) LocationRepository {
	return &locationRepository{db: db}
}

type wilayaRow struct {
	ID     int    `db:"id"`
	Name   string `db:"name"`
	NameAr string `db:"name_ar"`
}

type baladiaRow struct {
	ID          int    `db:"id"`
	WilayaID    int    `db:"wilaya_id"`
	Name        string `db:"name"`
	NameAr      string `db:"name_ar"`
	HasStopDesk bool   `db:"has_stop_desk"`
}

func (b baladiaRow) toModel() model.Baladia {
	return model.Baladia(b)
}

func (r locationRepository) ListWilayas(ctx context.Context) ([]model.Wilaya, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, name_ar FROM wilayas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query wilayas: %w", err)
	}

	wilayas, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Wilaya, error) {
		w, err := pgx.RowToStructByName[wilayaRow](row)
		return model.Wilaya(w), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect wilayas: %w", err)
	}

	return wilayas, nil
}

func (r locationRepository) ListBaladias(ctx context.Context, wilayaID int) ([]model.Baladia, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, wilaya_id, name, name_ar, has_stop_desk
		FROM baladias
		WHERE wilaya_id = @wilaya_id
		ORDER BY name
	`, pgx.NamedArgs{"wilaya_id": wilayaID})
	if err != nil {
		return nil, fmt.Errorf("query baladias: %w", err)
	}

	baladias, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Baladia, error) {
		b, err := pgx.RowToStructByName[baladiaRow](row)
		return b.toModel(), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect baladias: %w", err)
	}

	return baladias, nil
}

func (r locationRepository) GetBaladia(ctx context.Context, id int) (model.Baladia, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, wilaya_id, name, name_ar, has_stop_desk
		FROM baladias
		WHERE id = @id
	`, pgx.NamedArgs{"id": id})
	if err != nil {
		return model.Baladia{}, fmt.Errorf("query baladia: %w", err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[baladiaRow])
	if err != nil {
		if db.IsNoRows(err) {
			return model.Baladia{}, apperr.BaladiaNotFoundErr
		}
		return model.Baladia{}, fmt.Errorf("collect baladia: %w", err)
	}

	return b.toModel(), nil
}

func (r locationRepository) UpsertBaladias(ctx context.Context, baladias []model.Baladia) error {
	batch := &pgx.Batch{}
	for _, b := range baladias {
		batch.Queue(`
			INSERT INTO baladias (id, wilaya_id, name, name_ar, has_stop_desk)
			VALUES (@id, @wilaya_id, @name, @name_ar, @has_stop_desk)
			ON CONFLICT (id) DO UPDATE SET
				wilaya_id     = EXCLUDED.wilaya_id,
				name          = EXCLUDED.name,
				name_ar       = EXCLUDED.name_ar,
				has_stop_desk = EXCLUDED.has_stop_desk
		`, pgx.NamedArgs{
			"id":            b.ID,
			"wilaya_id":     b.WilayaID,
			"name":          b.Name,
			"name_ar":       b.NameAr,
			"has_stop_desk": b.HasStopDesk,
		})
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return apperr.WilayaNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("upsert baladias: %w", err)
	}

	return nil
}
