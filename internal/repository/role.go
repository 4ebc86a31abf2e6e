package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type RoleRepository interface {
	WithDB(db db.DB) RoleRepository
	CreateRole(ctx context.Context, role model.Role) error
	GetRole(ctx context.Context, id uuid.UUID) (model.Role, error)
	GetRoleByName(ctx context.Context, name string) (model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	SetRolePermissions(ctx context.Context, id uuid.UUID, permissions []auth.Permission) error
}

type roleRepository struct {
	db db.DB
}

func NewRoleRepository(db db.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r roleRepository) WithDB(db db.DB) RoleRepository {
	return &roleRepository{db: db}
}

const roleSelect = `
	SELECT r.id, r.name, r.created_at,
		COALESCE(ARRAY_AGG(rp.permission ORDER BY rp.permission) FILTER (WHERE rp.permission IS NOT NULL), '{}') AS permissions
	FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id`

type roleRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
	Permissions []string  `db:"permissions"`
}

func (r roleRow) toModel() model.Role {
	perms := make([]auth.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, auth.Permission(p))
	}
	return model.Role{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
	}
}

func (r roleRepository) CreateRole(ctx context.Context, role model.Role) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO roles (id, name, created_at) VALUES (@id, @name, @created_at)
	`, pgx.NamedArgs{"id": role.ID, "name": role.Name, "created_at": role.CreatedAt}); err != nil {
		if db.IsUniqueViolation(err, "roles_name_key") {
			return apperr.RoleNameConflictErr.WrapParent(err)
		}
		return fmt.Errorf("insert role: %w", err)
	}

	return r.SetRolePermissions(ctx, role.ID, role.Permissions)
}

func (r roleRepository) GetRole(ctx context.Context, id uuid.UUID) (model.Role, error) {
	return r.getOne(ctx, roleSelect+` WHERE r.id = @key GROUP BY r.id`, id)
}

func (r roleRepository) GetRoleByName(ctx context.Context, name string) (model.Role, error) {
	return r.getOne(ctx, roleSelect+` WHERE r.name = @key GROUP BY r.id`, name)
}

func (r roleRepository) getOne(ctx context.Context, query string, key any) (model.Role, error) {
	rows, err := r.db.Query(ctx, query, pgx.NamedArgs{"key": key})
	if err != nil {
		return model.Role{}, fmt.Errorf("query role: %w", err)
	}

	role, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[roleRow])
	if err != nil {
		if db.IsNoRows(err) {
			return model.Role{}, apperr.RoleNotFoundErr
		}
		return model.Role{}, fmt.Errorf("collect role: %w", err)
	}

	return role.toModel(), nil
}

func (r roleRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.Query(ctx, roleSelect+` GROUP BY r.id ORDER BY r.name`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}

	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Role, error) {
		role, err := pgx.RowToStructByName[roleRow](row)
		return role.toModel(), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect roles: %w", err)
	}

	return roles, nil
}

// SetRolePermissions replaces the role's grants; call it inside a transaction.
func (r roleRepository) SetRolePermissions(ctx context.Context, id uuid.UUID, permissions []auth.Permission) error {
	perms := make([]string, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, string(p))
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM role_permissions WHERE role_id = @role_id`, pgx.NamedArgs{"role_id": id})
	batch.Queue(`
		INSERT INTO role_permissions (role_id, permission)
		SELECT @role_id, UNNEST(@permissions::text[])
		ON CONFLICT DO NOTHING
	`, pgx.NamedArgs{"role_id": id, "permissions": perms})

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return apperr.RoleNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("set role permissions: %w", err)
	}

	return nil
}
