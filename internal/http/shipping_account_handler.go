package http

import (
	"fmt"
	"net/http"

	"github.com/samber/mo"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
)

type createShippingAccountRequest struct {
	Name     string                 `json:"name" validate:"required,max=120"`
	Provider model.ShippingProvider `json:"provider" validate:"required,enum"`
	BaseURL  string                 `json:"base_url" validate:"required,url"`
	APIToken string                 `json:"api_token" validate:"required,max=512"`
	UserGUID string                 `json:"user_guid" validate:"max=128"`
	Priority int                    `json:"priority" validate:"gte=0"`
	Enabled  *bool                  `json:"enabled"`
}

type updateShippingAccountRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	BaseURL  *string `json:"base_url" validate:"omitempty,url"`
	APIToken *string `json:"api_token" validate:"omitempty,min=1,max=512"`
	UserGUID *string `json:"user_guid" validate:"omitempty,max=128"`
	Priority *int    `json:"priority" validate:"omitempty,gte=0"`
	Enabled  *bool   `json:"enabled"`
}

func (s *Service) listShippingAccounts(r *http.Request) (response, error) {
	accounts, err := s.shippingAccountSvc.ListAccounts(r.Context())
	if err != nil {
		return response{}, fmt.Errorf("shipping account service list accounts: %w", err)
	}
	return ok(list(accounts)), nil
}

func (s *Service) createShippingAccount(r *http.Request) (response, error) {
	var req createShippingAccountRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	account, err := s.shippingAccountSvc.CreateAccount(r.Context(), service.CreateShippingAccountParams{
		Name:     req.Name,
		Provider: req.Provider,
		BaseURL:  req.BaseURL,
		APIToken: req.APIToken,
		UserGUID: req.UserGUID,
		Priority: req.Priority,
		Enabled:  req.Enabled == nil || *req.Enabled,
	})
	if err != nil {
		return response{}, fmt.Errorf("shipping account service create account: %w", err)
	}
	return created(account), nil
}

func (s *Service) getShippingAccount(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	account, err := s.shippingAccountSvc.GetAccount(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("shipping account service get account: %w", err)
	}
	return ok(account), nil
}

func (s *Service) updateShippingAccount(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req updateShippingAccountRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	account, err := s.shippingAccountSvc.UpdateAccount(r.Context(), id, service.UpdateShippingAccountParams{
		Name:     mo.PointerToOption(req.Name),
		BaseURL:  mo.PointerToOption(req.BaseURL),
		APIToken: mo.PointerToOption(req.APIToken),
		UserGUID: mo.PointerToOption(req.UserGUID),
		Priority: mo.PointerToOption(req.Priority),
		Enabled:  mo.PointerToOption(req.Enabled),
	})
	if err != nil {
		return response{}, fmt.Errorf("shipping account service update account: %w", err)
	}
	return ok(account), nil
}

func (s *Service) deleteShippingAccount(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	if err := s.shippingAccountSvc.DeleteAccount(r.Context(), id); err != nil {
		return response{}, fmt.Errorf("shipping account service delete account: %w", err)
	}
	return noContent(), nil
}
