package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
)

const (
	algerCentre = 1601
	babElOued   = 1602
	oranCommune = 3101
)

var discardLogger = slog.New(slog.DiscardHandler)

func newLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{
		wilayas: []model.Wilaya{
			{ID: 16, Name: "Alger", NameAr: "الجزائر"},
			{ID: 31, Name: "Oran", NameAr: "وهران"},
		},
		baladias: []model.Baladia{
			{ID: algerCentre, WilayaID: 16, Name: "Alger Centre", HasStopDesk: true},
			{ID: babElOued, WilayaID: 16, Name: "Bab El Oued"},
			{ID: oranCommune, WilayaID: 31, Name: "Oran", HasStopDesk: true},
		},
	}
}

func newPriceRepo() *fakeDeliveryPriceRepo {
	return &fakeDeliveryPriceRepo{prices: []model.DeliveryPrice{
		{WilayaID: 16, Type: model.DeliveryTypeHome, Price: decimal.NewFromInt(400)},
		{WilayaID: 16, Type: model.DeliveryTypeStopDesk, Price: decimal.NewFromInt(250)},
		{WilayaID: 16, BaladiaID: ptr.New(babElOued), Type: model.DeliveryTypeHome, Price: decimal.NewFromInt(500)},
	}}
}

type orderFixture struct {
	svc      OrderService
	orders   *fakeOrderRepo
	products *fakeProductRepo
	stock    *fakeStockRepo
	outbox   *fakeOutboxRepo
	shipper  *fakeShipper
	product  model.Product
	account  model.ShippingAccount
}

func newOrderFixture(stock int) *orderFixture {
	product := model.Product{
		ID:     uuid.New(),
		SKU:    "TSH-01",
		Name:   "T-shirt noir",
		Price:  decimal.NewFromInt(1500),
		Active: true,
		Stock:  stock,
	}
	account := model.ShippingAccount{
		ID:       uuid.New(),
		Name:     "ecotrack-main",
		Provider: model.ShippingProviderEcoTrack,
		Enabled:  true,
	}

	locations := NewLocationService(newLocationRepo())
	f := &orderFixture{
		orders:   newFakeOrderRepo(),
		products: newFakeProductRepo(product),
		outbox:   &fakeOutboxRepo{},
		shipper:  &fakeShipper{},
		product:  product,
		account:  account,
	}
	f.stock = &fakeStockRepo{products: f.products}
	f.svc = NewOrderService(
		config.Orders{DuplicateWindow: 72 * time.Hour},
		discardLogger,
		fakeDB{},
		locations,
		NewDeliveryService(locations, newPriceRepo()),
		f.shipper,
		f.orders,
		f.products,
		f.stock,
		newFakeShippingAccountRepo(account),
		f.outbox,
	)
	return f
}

func (f *orderFixture) createParams() CreateOrderParams {
	return CreateOrderParams{
		CustomerName: "Amine Benali",
		Phone:        "+213 555 12 34 56",
		Wilaya:       "16 - Alger",
		Baladia:      "alger centre",
		Address:      "12 rue Didouche Mourad",
		Items:        []OrderItemParams{{SKU: "tsh-01", Quantity: 2}},
	}
}
