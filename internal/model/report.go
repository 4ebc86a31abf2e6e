package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type StatusSummary struct {
	Status OrderStatus     `json:"status"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

type WilayaSummary struct {
	WilayaID int    `json:"wilaya_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

type Summary struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	Orders           int             `json:"orders"`
	ByStatus         []StatusSummary `json:"by_status"`
	DeliveredRevenue decimal.Decimal `json:"delivered_revenue"`
	DeliveryFees     decimal.Decimal `json:"delivery_fees"`
	Duplicates       int             `json:"duplicates"`
	TopWilayas       []WilayaSummary `json:"top_wilayas"`
}
