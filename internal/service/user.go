package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

const minPasswordLength = 8

type CreateUserParams struct {
	Email    string
	Name     string
	Password string
	RoleID   uuid.UUID
}

type CreateRoleParams struct {
	Name        string
	Permissions []auth.Permission
}

type UserService interface {
	CreateUser(ctx context.Context, params CreateUserParams) (model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserRole(ctx context.Context, id, roleID uuid.UUID) (model.User, error)
	// SetUserActive also ends every session of a deactivated user.
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) (model.User, error)

	CreateRole(ctx context.Context, params CreateRoleParams) (model.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	SetRolePermissions(ctx context.Context, id uuid.UUID, permissions []auth.Permission) (model.Role, error)

	// HasPermission reports whether the user's role grants perm.
	HasPermission(ctx context.Context, userID uuid.UUID, perm auth.Permission) (bool, error)
	// Bootstrap creates the first admin when no user exists yet.
	Bootstrap(ctx context.Context, email, password string) (bool, error)
}

type userService struct {
	cfg         config.Auth
	logger      *slog.Logger
	db          db.DB
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	sessionRepo repository.SessionRepository
}

func NewUserService(
	cfg config.Auth,
	logger *slog.Logger,
	db db.DB,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	sessionRepo repository.SessionRepository,
) UserService {
	return &userService{
		cfg:         cfg,
		logger:      logger.With(slog.String("service", "user")),
		db:          db,
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		sessionRepo: sessionRepo,
	}
}

func (s *userService) CreateUser(ctx context.Context, params CreateUserParams) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return model.User{}, apperr.ValidationErr.WithMsg("email is required")
	}
	if len(params.Password) < minPasswordLength {
		return model.User{}, apperr.ValidationErr.WithMsg("password must be at least %d characters", minPasswordLength)
	}

	role, err := s.GetRole(ctx, params.RoleID)
	if err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cfg.BcryptCost.Int())
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := newID()
	if err != nil {
		return model.User{}, err
	}
	now := time.Now()
	user := model.User{
		ID:           id,
		Email:        email,
		Name:         strings.TrimSpace(params.Name),
		PasswordHash: string(hash),
		RoleID:       role.ID,
		RoleName:     role.Name,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("user repository create user: %w", err)
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.userRepo.GetUser(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("user repository get user: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("user repository list users: %w", err)
	}
	return users, nil
}

func (s *userService) SetUserRole(ctx context.Context, id, roleID uuid.UUID) (model.User, error) {
	if err := s.userRepo.SetUserRole(ctx, id, roleID, time.Now()); err != nil {
		return model.User{}, fmt.Errorf("user repository set user role: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *userService) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (model.User, error) {
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		if err := s.userRepo.
			WithDB(tx).
			SetUserActive(ctx, id, active, time.Now()); err != nil {
			return fmt.Errorf("user repository set user active: %w", err)
		}
		if active {
			return nil
		}
		if err := s.sessionRepo.
			WithDB(tx).
			DeleteUserSessions(ctx, id); err != nil {
			return fmt.Errorf("session repository delete user sessions: %w", err)
		}
		return nil
	}); err != nil {
		return model.User{}, fmt.Errorf("db with tx: %w", err)
	}

	return s.GetUser(ctx, id)
}

func (s *userService) CreateRole(ctx context.Context, params CreateRoleParams) (model.Role, error) {
	name := strings.ToLower(strings.TrimSpace(params.Name))
	if name == "" {
		return model.Role{}, apperr.ValidationErr.WithMsg("role name is required")
	}
	perms, err := validatePermissions(params.Permissions)
	if err != nil {
		return model.Role{}, err
	}

	id, err := newID()
	if err != nil {
		return model.Role{}, err
	}
	role := model.Role{
		ID:          id,
		Name:        name,
		Permissions: perms,
		CreatedAt:   time.Now(),
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		if err := s.roleRepo.
			WithDB(tx).
			CreateRole(ctx, role); err != nil {
			return fmt.Errorf("role repository create role: %w", err)
		}
		return nil
	}); err != nil {
		return model.Role{}, fmt.Errorf("db with tx: %w", err)
	}

	return role, nil
}

func (s *userService) GetRole(ctx context.Context, id uuid.UUID) (model.Role, error) {
	role, err := s.roleRepo.GetRole(ctx, id)
	if err != nil {
		return model.Role{}, fmt.Errorf("role repository get role: %w", err)
	}
	return role, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roleRepo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("role repository list roles: %w", err)
	}
	return roles, nil
}

func (s *userService) SetRolePermissions(ctx context.Context, id uuid.UUID, permissions []auth.Permission) (model.Role, error) {
	perms, err := validatePermissions(permissions)
	if err != nil {
		return model.Role{}, err
	}
	if _, err := s.GetRole(ctx, id); err != nil {
		return model.Role{}, err
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		if err := s.roleRepo.
			WithDB(tx).
			SetRolePermissions(ctx, id, perms); err != nil {
			return fmt.Errorf("role repository set role permissions: %w", err)
		}
		return nil
	}); err != nil {
		return model.Role{}, fmt.Errorf("db with tx: %w", err)
	}

	return s.GetRole(ctx, id)
}

func (s *userService) HasPermission(ctx context.Context, userID uuid.UUID, perm auth.Permission) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.Active {
		return false, nil
	}

	role, err := s.GetRole(ctx, user.RoleID)
	if err != nil {
		return false, err
	}

	return auth.Principal{Role: role.Name, Permissions: role.Permissions}.Can(perm), nil
}

func (s *userService) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	n, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("user repository count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	role, err := s.roleRepo.GetRoleByName(ctx, auth.AdminRole)
	if err != nil {
		return false, fmt.Errorf("role repository get role by name: %w", err)
	}

	if _, err := s.CreateUser(ctx, CreateUserParams{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		RoleID:   role.ID,
	}); err != nil {
		if errors.Is(err, apperr.UserEmailConflict) {
			return false, nil
		}
		return false, err
	}

	s.logger.InfoContext(ctx, "bootstrap admin created", slog.String("email", email))
	return true, nil
}

func validatePermissions(perms []auth.Permission) ([]auth.Permission, error) {
	for _, p := range perms {
		if err := p.Validate(); err != nil {
			return nil, apperr.ValidationErr.WithMsg("%s", err.Error())
		}
	}
	return lo.Uniq(perms), nil
}
