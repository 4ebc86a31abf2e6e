package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=256"`
}

type meResponse struct {
	User        model.User        `json:"user"`
	SessionID   uuid.UUID         `json:"session_id"`
	Permissions []auth.Permission `json:"permissions"`
}

func (s *Service) login(r *http.Request) (response, error) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	res, err := s.authSvc.Login(r.Context(), service.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return response{}, fmt.Errorf("auth service login: %w", err)
	}
	return ok(res), nil
}

func (s *Service) logout(r *http.Request) (response, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return response{}, err
	}
	if err := s.authSvc.Logout(r.Context(), principal.SessionID); err != nil {
		return response{}, fmt.Errorf("auth service logout: %w", err)
	}
	return noContent(), nil
}

// heartbeat keeps the session visible in presence while the UI is open
// but idle.
func (s *Service) heartbeat(r *http.Request) (response, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return response{}, err
	}
	if err := s.authSvc.Heartbeat(r.Context(), principal.SessionID); err != nil {
		return response{}, fmt.Errorf("auth service heartbeat: %w", err)
	}
	return ok(map[string]time.Time{"seen_at": time.Now().UTC()}), nil
}

func (s *Service) me(r *http.Request) (response, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return response{}, err
	}

	user, err := s.userSvc.GetUser(r.Context(), principal.UserID)
	if err != nil {
		return response{}, fmt.Errorf("user service get user: %w", err)
	}

	perms := principal.Permissions
	if principal.Role == auth.AdminRole {
		perms = auth.AllPermissions
	}
	return ok(meResponse{User: user, SessionID: principal.SessionID, Permissions: perms}), nil
}

func (s *Service) onlineUsers(r *http.Request) (response, error) {
	users, err := s.authSvc.OnlineUsers(r.Context())
	if err != nil {
		return response{}, fmt.Errorf("auth service online users: %w", err)
	}
	return ok(list(users)), nil
}

func (s *Service) listPermissions(*http.Request) (response, error) {
	return ok(list(auth.AllPermissions)), nil
}

func principalFrom(r *http.Request) (auth.Principal, error) {
	p, found := auth.FromContext(r.Context())
	if !found {
		return auth.Principal{}, apperr.UnauthenticatedErr
	}
	return p, nil
}
