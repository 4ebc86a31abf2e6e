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

type ShippingAccountRepository interface {
	WithDB(db db.DB) ShippingAccountRepository
	CreateShippingAccount(ctx context.Context, account model.ShippingAccount) error
	UpdateShippingAccount(ctx context.Context, account model.ShippingAccount) error
	GetShippingAccount(ctx context.Context, id uuid.UUID) (model.ShippingAccount, error)
	// ListShippingAccounts orders accounts by priority, then name.
	ListShippingAccounts(ctx context.Context, enabledOnly bool) ([]model.ShippingAccount, error)
	DeleteShippingAccount(ctx context.Context, id uuid.UUID) error
}

type shippingAccountRepository struct {
	db db.DB
}

func NewShippingAccountRepository(db db.DB) ShippingAccountRepository {
	return &shippingAccountRepository{db: db}
}

func (r shippingAccountRepository) WithDB(db db.DB) ShippingAccountRepository {
	return &shippingAccountRepository{db: db}
}

const shippingAccountColumns = `id, name, provider, base_url, api_token, user_guid, priority, enabled, created_at, updated_at`

type shippingAccountRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Provider  string    `db:"provider"`
	BaseURL   string    `db:"base_url"`
	APIToken  string    `db:"api_token"`
	UserGUID  string    `db:"user_guid"`
	Priority  int       `db:"priority"`
	Enabled   bool      `db:"enabled"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (a shippingAccountRow) toModel() model.ShippingAccount {
	return model.ShippingAccount{
		ID:        a.ID,
		Name:      a.Name,
		Provider:  model.ShippingProvider(a.Provider),
		BaseURL:   a.BaseURL,
		APIToken:  a.APIToken,
		UserGUID:  a.UserGUID,
		Priority:  a.Priority,
		Enabled:   a.Enabled,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func shippingAccountArgs(a model.ShippingAccount) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":         a.ID,
		"name":       a.Name,
		"provider":   string(a.Provider),
		"base_url":   a.BaseURL,
		"api_token":  a.APIToken,
		"user_guid":  a.UserGUID,
		"priority":   a.Priority,
		"enabled":    a.Enabled,
		"created_at": a.CreatedAt,
		"updated_at": a.UpdatedAt,
	}
}

func (r shippingAccountRepository) CreateShippingAccount(ctx context.Context, account model.ShippingAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO shipping_accounts (`+shippingAccountColumns+`)
		VALUES (@id, @name, @provider, @base_url, @api_token, @user_guid, @priority, @enabled, @created_at, @updated_at)
	`, shippingAccountArgs(account))
	if err != nil {
		if db.IsUniqueViolation(err, "shipping_accounts_name_key") {
			return apperr.ShippingAccountNameConflictErr.WrapParent(err)
		}
		return fmt.Errorf("insert shipping account: %w", err)
	}
	return nil
}

func (r shippingAccountRepository) UpdateShippingAccount(ctx context.Context, account model.ShippingAccount) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE shipping_accounts
		SET name = @name, provider = @provider, base_url = @base_url, api_token = @api_token,
			user_guid = @user_guid, priority = @priority, enabled = @enabled, updated_at = @updated_at
		WHERE id = @id
	`, shippingAccountArgs(account))
	if err != nil {
		if db.IsUniqueViolation(err, "shipping_accounts_name_key") {
			return apperr.ShippingAccountNameConflictErr.WrapParent(err)
		}
		return fmt.Errorf("update shipping account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ShippingAccountNotFoundErr
	}
	return nil
}

func (r shippingAccountRepository) GetShippingAccount(ctx context.Context, id uuid.UUID) (model.ShippingAccount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+shippingAccountColumns+` FROM shipping_accounts WHERE id = @id`,
		pgx.NamedArgs{"id": id},
	)
	if err != nil {
		return model.ShippingAccount{}, fmt.Errorf("query shipping account: %w", err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[shippingAccountRow])
	if err != nil {
		if db.IsNoRows(err) {
			return model.ShippingAccount{}, apperr.ShippingAccountNotFoundErr
		}
		return model.ShippingAccount{}, fmt.Errorf("collect shipping account: %w", err)
	}

	return a.toModel(), nil
}

func (r shippingAccountRepository) ListShippingAccounts(ctx context.Context, enabledOnly bool) ([]model.ShippingAccount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+shippingAccountColumns+`
		FROM shipping_accounts
		WHERE NOT @enabled_only OR enabled
		ORDER BY priority, name
	`, pgx.NamedArgs{"enabled_only": enabledOnly})
	if err != nil {
		return nil, fmt.Errorf("query shipping accounts: %w", err)
	}

	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ShippingAccount, error) {
		a, err := pgx.RowToStructByName[shippingAccountRow](row)
		return a.toModel(), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect shipping accounts: %w", err)
	}

	return accounts, nil
}

func (r shippingAccountRepository) DeleteShippingAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM shipping_accounts WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return apperr.ShippingAccountInUseErr.WrapParent(err)
		}
		return fmt.Errorf("delete shipping account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ShippingAccountNotFoundErr
	}
	return nil
}
