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

type UserRepository interface {
	WithDB(db db.DB) UserRepository
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	SetUserRole(ctx context.Context, id, roleID uuid.UUID, updatedAt time.Time) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) error
}

type userRepository struct {
	db db.DB
}

func NewUserRepository(db db.DB) UserRepository {
	return &userRepository{db: db}
}

func (r userRepository) WithDB(db db.DB) UserRepository {
	return &userRepository{db: db}
}

const userSelect = `
	SELECT u.id, u.email, u.name, u.password_hash, u.role_id, r.name AS role_name,
		u.active, u.created_at, u.updated_at
	FROM users u
	JOIN roles r ON r.id = u.role_id`

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	RoleID       uuid.UUID `db:"role_id"`
	RoleName     string    `db:"role_name"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRepository) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role_id, active, created_at, updated_at)
		VALUES (@id, @email, @name, @password_hash, @role_id, @active, @created_at, @updated_at)
	`, pgx.NamedArgs{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"role_id":       user.RoleID,
		"active":        user.Active,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	})
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "users_email_key"):
			return apperr.UserEmailConflict.WrapParent(err)
		case db.IsForeignKeyViolation(err, ""):
			return apperr.RoleNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r userRepository) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getOne(ctx, userSelect+` WHERE u.id = @key`, id)
}

func (r userRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, userSelect+` WHERE LOWER(u.email) = LOWER(@key)`, email)
}

func (r userRepository) getOne(ctx context.Context, query string, key any) (model.User, error) {
	rows, err := r.db.Query(ctx, query, pgx.NamedArgs{"key": key})
	if err != nil {
		return model.User{}, fmt.Errorf("query user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		if db.IsNoRows(err) {
			return model.User{}, apperr.UserNotFoundErr
		}
		return model.User{}, fmt.Errorf("collect user: %w", err)
	}

	return model.User(u), nil
}

func (r userRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY u.name`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.User, error) {
		u, err := pgx.RowToStructByName[userRow](row)
		return model.User(u), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect users: %w", err)
	}

	return users, nil
}

func (r userRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r userRepository) SetUserRole(ctx context.Context, id, roleID uuid.UUID, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET role_id = @role_id, updated_at = @updated_at WHERE id = @id
	`, pgx.NamedArgs{"id": id, "role_id": roleID, "updated_at": updatedAt})
	if err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return apperr.RoleNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.UserNotFoundErr
	}

	return nil
}

func (r userRepository) SetUserActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET active = @active, updated_at = @updated_at WHERE id = @id
	`, pgx.NamedArgs{"id": id, "active": active, "updated_at": updatedAt})
	if err != nil {
		return fmt.Errorf("update user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.UserNotFoundErr
	}

	return nil
}
