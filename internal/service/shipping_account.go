package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
)

type CreateShippingAccountParams struct {
	Name     string
	Provider model.ShippingProvider
	BaseURL  string
	APIToken string
	UserGUID string
	Priority int
	Enabled  bool
}

type UpdateShippingAccountParams struct {
	Name     mo.Option[string]
	BaseURL  mo.Option[string]
	APIToken mo.Option[string]
	UserGUID mo.Option[string]
	Priority mo.Option[int]
	Enabled  mo.Option[bool]
}

type ShippingAccountService interface {
	CreateAccount(ctx context.Context, params CreateShippingAccountParams) (model.ShippingAccount, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, params UpdateShippingAccountParams) (model.ShippingAccount, error)
	GetAccount(ctx context.Context, id uuid.UUID) (model.ShippingAccount, error)
	ListAccounts(ctx context.Context) ([]model.ShippingAccount, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type shippingAccountService struct {
	shippingAccountRepo repository.ShippingAccountRepository
}

func NewShippingAccountService(shippingAccountRepo repository.ShippingAccountRepository) ShippingAccountService {
	return &shippingAccountService{shippingAccountRepo: shippingAccountRepo}
}

func (s *shippingAccountService) CreateAccount(ctx context.Context, params CreateShippingAccountParams) (model.ShippingAccount, error) {
	id, err := newID()
	if err != nil {
		return model.ShippingAccount{}, err
	}

	now := time.Now()
	account := model.ShippingAccount{
		ID:        id,
		Name:      strings.TrimSpace(params.Name),
		Provider:  params.Provider,
		BaseURL:   strings.TrimRight(strings.TrimSpace(params.BaseURL), "/"),
		APIToken:  params.APIToken,
		UserGUID:  params.UserGUID,
		Priority:  params.Priority,
		Enabled:   params.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateAccount(account); err != nil {
		return model.ShippingAccount{}, err
	}

	if err := s.shippingAccountRepo.CreateShippingAccount(ctx, account); err != nil {
		return model.ShippingAccount{}, fmt.Errorf("shipping account repository create shipping account: %w", err)
	}

	return account, nil
}

func (s *shippingAccountService) UpdateAccount(ctx context.Context, id uuid.UUID, params UpdateShippingAccountParams) (model.ShippingAccount, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return model.ShippingAccount{}, err
	}

	account.Name = strings.TrimSpace(params.Name.OrElse(account.Name))
	account.BaseURL = strings.TrimRight(strings.TrimSpace(params.BaseURL.OrElse(account.BaseURL)), "/")
	account.APIToken = params.APIToken.OrElse(account.APIToken)
	account.UserGUID = params.UserGUID.OrElse(account.UserGUID)
	account.Priority = params.Priority.OrElse(account.Priority)
	account.Enabled = params.Enabled.OrElse(account.Enabled)
	account.UpdatedAt = time.Now()
	if err := validateAccount(account); err != nil {
		return model.ShippingAccount{}, err
	}

	if err := s.shippingAccountRepo.UpdateShippingAccount(ctx, account); err != nil {
		return model.ShippingAccount{}, fmt.Errorf("shipping account repository update shipping account: %w", err)
	}

	return account, nil
}

func (s *shippingAccountService) GetAccount(ctx context.Context, id uuid.UUID) (model.ShippingAccount, error) {
	account, err := s.shippingAccountRepo.GetShippingAccount(ctx, id)
	if err != nil {
		return model.ShippingAccount{}, fmt.Errorf("shipping account repository get shipping account: %w", err)
	}
	return account, nil
}

func (s *shippingAccountService) ListAccounts(ctx context.Context) ([]model.ShippingAccount, error) {
	accounts, err := s.shippingAccountRepo.ListShippingAccounts(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("shipping account repository list shipping accounts: %w", err)
	}
	return accounts, nil
}

func (s *shippingAccountService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.shippingAccountRepo.DeleteShippingAccount(ctx, id); err != nil {
		return fmt.Errorf("shipping account repository delete shipping account: %w", err)
	}
	return nil
}

func validateAccount(a model.ShippingAccount) error {
	if a.Name == "" {
		return apperr.ValidationErr.WithMsg("account name is required")
	}
	if err := a.Provider.Validate(); err != nil {
		return apperr.ValidationErr.WithMsg("%s", err.Error())
	}
	if u, err := url.Parse(a.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.ValidationErr.WithMsg("base url must be an absolute http(s) url")
	}
	if a.APIToken == "" {
		return apperr.ValidationErr.WithMsg("api token is required")
	}
	if a.Provider == model.ShippingProviderNoest && a.UserGUID == "" {
		return apperr.ValidationErr.WithMsg("noest accounts need a user guid")
	}
	return nil
}
