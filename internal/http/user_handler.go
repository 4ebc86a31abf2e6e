package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
)

type createUserRequest struct {
	Email    string    `json:"email" validate:"required,email,max=254"`
	Name     string    `json:"name" validate:"required,max=120"`
	Password string    `json:"password" validate:"required,min=8,max=256"`
	RoleID   uuid.UUID `json:"role_id" validate:"required"`
}

type setUserRoleRequest struct {
	RoleID uuid.UUID `json:"role_id" validate:"required"`
}

type setUserActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type createRoleRequest struct {
	Name        string            `json:"name" validate:"required,max=64"`
	Permissions []auth.Permission `json:"permissions" validate:"dive,enum"`
}

type setRolePermissionsRequest struct {
	Permissions []auth.Permission `json:"permissions" validate:"required,dive,enum"`
}

func (s *Service) listUsers(r *http.Request) (response, error) {
	users, err := s.userSvc.ListUsers(r.Context())
	if err != nil {
		return response{}, fmt.Errorf("user service list users: %w", err)
	}
	return ok(list(users)), nil
}

func (s *Service) createUser(r *http.Request) (response, error) {
	var req createUserRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	user, err := s.userSvc.CreateUser(r.Context(), service.CreateUserParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		return response{}, fmt.Errorf("user service create user: %w", err)
	}
	return created(user), nil
}

func (s *Service) getUser(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	user, err := s.userSvc.GetUser(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("user service get user: %w", err)
	}
	return ok(user), nil
}

func (s *Service) setUserRole(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req setUserRoleRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	user, err := s.userSvc.SetUserRole(r.Context(), id, req.RoleID)
	if err != nil {
		return response{}, fmt.Errorf("user service set user role: %w", err)
	}
	return ok(user), nil
}

// setUserActive ends every session of the user when deactivating.
func (s *Service) setUserActive(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req setUserActiveRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	user, err := s.userSvc.SetUserActive(r.Context(), id, *req.Active)
	if err != nil {
		return response{}, fmt.Errorf("user service set user active: %w", err)
	}
	return ok(user), nil
}

func (s *Service) listRoles(r *http.Request) (response, error) {
	roles, err := s.userSvc.ListRoles(r.Context())
	if err != nil {
		return response{}, fmt.Errorf("user service list roles: %w", err)
	}
	return ok(list(roles)), nil
}

func (s *Service) createRole(r *http.Request) (response, error) {
	var req createRoleRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	role, err := s.userSvc.CreateRole(r.Context(), service.CreateRoleParams{
		Name:        req.Name,
		Permissions: req.Permissions,
	})
	if err != nil {
		return response{}, fmt.Errorf("user service create role: %w", err)
	}
	return created(role), nil
}

func (s *Service) getRole(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	role, err := s.userSvc.GetRole(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("user service get role: %w", err)
	}
	return ok(role), nil
}

func (s *Service) setRolePermissions(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req setRolePermissionsRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	role, err := s.userSvc.SetRolePermissions(r.Context(), id, req.Permissions)
	if err != nil {
		return response{}, fmt.Errorf("user service set role permissions: %w", err)
	}
	return ok(role), nil
}
