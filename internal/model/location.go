package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Wilaya is a province; ID is the official numeric code (1..58).
type Wilaya struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	NameAr string `json:"name_ar"`
}

// Baladia is a commune inside a wilaya.
type Baladia struct {
	ID          int    `json:"id"`
	WilayaID    int    `json:"wilaya_id"`
	Name        string `json:"name"`
	NameAr      string `json:"name_ar"`
	HasStopDesk bool   `json:"has_stop_desk"`
}

type DeliveryType string

const (
	DeliveryTypeHome     DeliveryType = "home"
	DeliveryTypeStopDesk DeliveryType = "stop_desk"
)

func (t DeliveryType) Validate() error {
	switch t {
	case DeliveryTypeHome, DeliveryTypeStopDesk:
		return nil
	default:
		return fmt.Errorf("invalid delivery type: %s", t)
	}
}

// DeliveryPrice is a wilaya-level price when BaladiaID is nil, a commune
// override otherwise.
type DeliveryPrice struct {
	WilayaID  int             `json:"wilaya_id"`
	BaladiaID *int            `json:"baladia_id,omitempty"`
	Type      DeliveryType    `json:"type"`
	Price     decimal.Decimal `json:"price"`
}
