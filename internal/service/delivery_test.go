package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
)

func TestQuote(t *testing.T) {
	ctx := context.Background()
	svc := NewDeliveryService(NewLocationService(newLocationRepo()), newPriceRepo())

	tests := []struct {
		name      string
		params    QuoteParams
		wantPrice int64
		wantLevel PriceLevel
		wantErr   error
	}{
		{
			name:      "wilaya price",
			params:    QuoteParams{WilayaID: 16, BaladiaID: algerCentre, DeliveryType: model.DeliveryTypeHome},
			wantPrice: 400,
			wantLevel: PriceLevelWilaya,
		},
		{
			name:      "commune override",
			params:    QuoteParams{WilayaID: 16, BaladiaID: babElOued, DeliveryType: model.DeliveryTypeHome},
			wantPrice: 500,
			wantLevel: PriceLevelCommune,
		},
		{
			name:      "stop desk",
			params:    QuoteParams{WilayaID: 16, BaladiaID: algerCentre, DeliveryType: model.DeliveryTypeStopDesk},
			wantPrice: 250,
			wantLevel: PriceLevelWilaya,
		},
		{
			name:    "commune without desk",
			params:  QuoteParams{WilayaID: 16, BaladiaID: babElOued, DeliveryType: model.DeliveryTypeStopDesk},
			wantErr: apperr.StopDeskUnavailableErr,
		},
		{
			name:    "no price for wilaya",
			params:  QuoteParams{WilayaID: 31, BaladiaID: oranCommune, DeliveryType: model.DeliveryTypeHome},
			wantErr: apperr.DeliveryPriceNotFoundErr,
		},
		{
			name:    "commune outside wilaya",
			params:  QuoteParams{WilayaID: 31, BaladiaID: algerCentre, DeliveryType: model.DeliveryTypeHome},
			wantErr: apperr.BaladiaNotFoundErr,
		},
		{
			name:    "unknown delivery type",
			params:  QuoteParams{WilayaID: 16, BaladiaID: algerCentre, DeliveryType: "drone"},
			wantErr: apperr.ValidationErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.Quote(ctx, tt.params)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.wantPrice).Equal(q.Price), q.Price.String())
			assert.Equal(t, tt.wantLevel, q.Level)
		})
	}
}

func TestSetPrice(t *testing.T) {
	ctx := context.Background()
	prices := newPriceRepo()
	svc := NewDeliveryService(NewLocationService(newLocationRepo()), prices)

	_, err := svc.SetPrice(ctx, model.DeliveryPrice{WilayaID: 31, Type: model.DeliveryTypeHome, Price: decimal.NewFromInt(600)})
	require.NoError(t, err)

	q, err := svc.Quote(ctx, QuoteParams{WilayaID: 31, BaladiaID: oranCommune, DeliveryType: model.DeliveryTypeHome})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(600).Equal(q.Price))

	_, err = svc.SetPrice(ctx, model.DeliveryPrice{WilayaID: 31, BaladiaID: ptr.New(algerCentre), Type: model.DeliveryTypeHome})
	require.ErrorIs(t, err, apperr.BaladiaNotFoundErr)

	_, err = svc.SetPrice(ctx, model.DeliveryPrice{WilayaID: 99, Type: model.DeliveryTypeHome})
	require.ErrorIs(t, err, apperr.WilayaNotFoundErr)

	_, err = svc.SetPrice(ctx, model.DeliveryPrice{WilayaID: 16, Type: model.DeliveryTypeHome, Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, apperr.ValidationErr)
}

func TestLocationService(t *testing.T) {
	ctx := context.Background()
	repo := newLocationRepo()
	svc := NewLocationService(repo)

	w, err := svc.ResolveWilaya(ctx, "wahran")
	require.NoError(t, err)
	assert.Equal(t, 31, w.ID)

	_, err = svc.ListWilayas(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "wilayas are cached")

	b, err := svc.ResolveBaladia(ctx, 16, "BAB-EL-OUED")
	require.NoError(t, err)
	assert.Equal(t, babElOued, b.ID)

	_, err = svc.ResolveBaladia(ctx, 31, "Bab El Oued")
	require.ErrorIs(t, err, apperr.BaladiaNotFoundErr)

	_, err = svc.ListBaladias(ctx, 99)
	require.ErrorIs(t, err, apperr.WilayaNotFoundErr)

	upserted, err := svc.UpsertBaladias(ctx, 31, []model.Baladia{{ID: 3102, Name: "Bir El Djir", HasStopDesk: true}})
	require.NoError(t, err)
	assert.Len(t, upserted, 2)
	assert.Equal(t, 31, upserted[1].WilayaID)

	_, err = svc.UpsertBaladias(ctx, 31, []model.Baladia{{ID: 1603, WilayaID: 16, Name: "Hydra"}})
	require.ErrorIs(t, err, apperr.ValidationErr)
}
