package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ShippingProvider string

const (
	ShippingProviderEcoTrack ShippingProvider = "ecotrack"
	ShippingProviderNoest    ShippingProvider = "noest"
)

func (p ShippingProvider) Validate() error {
	switch p {
	case ShippingProviderEcoTrack, ShippingProviderNoest:
		return nil
	default:
		return fmt.Errorf("invalid shipping provider: %s", p)
	}
}

// ShippingAccount is one set of provider credentials. Several accounts may
// exist for one provider; dispatch falls back across them by Priority.
type ShippingAccount struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Provider  ShippingProvider `json:"provider"`
	BaseURL   string           `json:"base_url"`
	APIToken  string           `json:"-"`
	UserGUID  string           `json:"-"`
	Priority  int              `json:"priority"`
	Enabled   bool             `json:"enabled"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
