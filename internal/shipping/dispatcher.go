package shipping

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

type AccountLister interface {
	ListShippingAccounts(ctx context.Context, enabledOnly bool) ([]model.ShippingAccount, error)
}

type Dispatcher struct {
	logger    *slog.Logger
	accounts  AccountLister
	providers map[model.ShippingProvider]Provider
	metrics   *Metrics
}

func NewDispatcher(
	logger *slog.Logger,
	accounts AccountLister,
	providers map[model.ShippingProvider]Provider,
	metrics *Metrics,
) *Dispatcher {
	return &Dispatcher{
		logger:    logger.With(slog.String("service", "shipping")),
		accounts:  accounts,
		providers: providers,
		metrics:   metrics,
	}
}

// Candidates orders the enabled accounts for a dispatch attempt: the
// preferred account first when it is enabled, then the rest by ascending
// priority and name.
func Candidates(accounts []model.ShippingAccount, preferred *uuid.UUID) []model.ShippingAccount {
	enabled := make([]model.ShippingAccount, 0, len(accounts))
	for _, a := range accounts {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}

	slices.SortStableFunc(enabled, func(a, b model.ShippingAccount) int {
		if preferred != nil {
			switch {
			case a.ID == *preferred && b.ID != *preferred:
				return -1
			case b.ID == *preferred && a.ID != *preferred:
				return 1
			}
		}
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.Name, b.Name))
	})

	return enabled
}

// Dispatch creates the shipment on the first account that accepts it.
// Account failures fall through to the next candidate; a rejection of the
// request itself stops immediately. Nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, preferred *uuid.UUID, req ShipmentRequest) (Shipment, error) {
	accounts, err := d.accounts.ListShippingAccounts(ctx, true)
	if err != nil {
		return Shipment{}, fmt.Errorf("list shipping accounts: %w", err)
	}

	candidates := Candidates(accounts, preferred)
	if len(candidates) == 0 {
		return Shipment{}, apperr.NoShippingAccountErr
	}

	var errs []error
	for _, account := range candidates {
		tracking, err := d.create(ctx, account, req)
		if err == nil {
			d.logger.InfoContext(ctx, "shipment created",
				slog.String("reference", req.Reference),
				slog.String("account", account.Name),
				slog.String("tracking", tracking),
			)
			return Shipment{Tracking: tracking, AccountID: account.ID, AccountName: account.Name}, nil
		}

		if IsRequestError(err) {
			return Shipment{}, apperr.ShippingRejectedErr.WithMsg("%s", rejectionMessage(err)).WrapParent(err)
		}

		d.logger.WarnContext(ctx, "shipping account failed, trying next",
			slog.String("reference", req.Reference),
			slog.String("account", account.Name),
			slog.Any("error", err),
		)
		errs = append(errs, err)
	}

	return Shipment{}, apperr.ShippingFailedErr.WrapParent(errors.Join(errs...))
}

func (d *Dispatcher) create(ctx context.Context, account model.ShippingAccount, req ShipmentRequest) (string, error) {
	provider, ok := d.providers[account.Provider]
	if !ok {
		return "", &Error{Kind: KindAccount, Account: account.Name, Message: fmt.Sprintf("no client for provider %s", account.Provider)}
	}

	tracking, err := provider.CreateShipment(ctx, account, req)
	d.metrics.observe(string(account.Provider), account.Name, "create", err)
	return tracking, err
}

// Track fetches tracking history from the account that created the shipment.
func (d *Dispatcher) Track(ctx context.Context, account model.ShippingAccount, tracking string) (TrackingInfo, error) {
	provider, ok := d.providers[account.Provider]
	if !ok {
		return TrackingInfo{}, fmt.Errorf("no client for provider %s", account.Provider)
	}

	info, err := provider.Tracking(ctx, account, tracking)
	d.metrics.observe(string(account.Provider), account.Name, "tracking", err)
	if err != nil {
		return TrackingInfo{}, apperr.ShippingFailedErr.WithMsg("tracking lookup failed").WrapParent(err)
	}

	return info, nil
}

func rejectionMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "shipping provider rejected the order"
}
