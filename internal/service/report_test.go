package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

type fakeReportRepo struct {
	from, to time.Time
	top      int
	calls    int
	err      error
}

func (r *fakeReportRepo) WithDB(db.DB) repository.ReportRepository { return r }

func (r *fakeReportRepo) Summary(_ context.Context, from, to time.Time, top int) (model.Summary, error) {
	r.calls++
	r.from, r.to, r.top = from, to, top
	if r.err != nil {
		return model.Summary{}, r.err
	}
	return model.Summary{
		From:   from,
		To:     to,
		Orders: 3,
		ByStatus: []model.StatusSummary{
			{Status: model.OrderStatusDelivered, Count: 2, Total: decimal.NewFromInt(5600)},
			{Status: model.OrderStatusNew, Count: 1, Total: decimal.NewFromInt(1800)},
		},
		DeliveredRevenue: decimal.NewFromInt(4800),
		DeliveryFees:     decimal.NewFromInt(800),
		Duplicates:       1,
		TopWilayas:       []model.WilayaSummary{{WilayaID: 16, Name: "Alger", Count: 3}},
	}, nil
}

func TestReportSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("Should default to the last 30 days", func(t *testing.T) {
		repo := &fakeReportRepo{}
		svc := NewReportService(repo)

		before := time.Now()
		summary, err := svc.Summary(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)

		assert.False(t, repo.to.Before(before))
		assert.WithinDuration(t, time.Now(), repo.to, time.Minute)
		assert.Equal(t, 30*24*time.Hour, repo.to.Sub(repo.from))
		assert.Equal(t, topWilayas, repo.top)
		assert.Equal(t, repo.from, summary.From)
	})

	t.Run("Should count back from an explicit end", func(t *testing.T) {
		repo := &fakeReportRepo{}
		to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

		_, err := NewReportService(repo).Summary(ctx, time.Time{}, to)
		require.NoError(t, err)
		assert.Equal(t, to, repo.to)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), repo.from)
	})

	t.Run("Should pass an explicit range through", func(t *testing.T) {
		repo := &fakeReportRepo{}
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		summary, err := NewReportService(repo).Summary(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, from, repo.from)
		assert.Equal(t, to, repo.to)

		assert.Equal(t, 3, summary.Orders)
		require.Len(t, summary.ByStatus, 2)
		assert.Equal(t, model.OrderStatusDelivered, summary.ByStatus[0].Status)
		assert.True(t, decimal.NewFromInt(4800).Equal(summary.DeliveredRevenue))
		assert.True(t, decimal.NewFromInt(800).Equal(summary.DeliveryFees))
		assert.Equal(t, 1, summary.Duplicates)
		require.Len(t, summary.TopWilayas, 1)
		assert.Equal(t, 16, summary.TopWilayas[0].WilayaID)
	})

	t.Run("Should reject a range that ends before it starts", func(t *testing.T) {
		repo := &fakeReportRepo{}
		day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

		_, err := NewReportService(repo).Summary(ctx, day, day)
		require.ErrorIs(t, err, apperr.ValidationErr)

		_, err = NewReportService(repo).Summary(ctx, day, day.Add(-time.Hour))
		require.ErrorIs(t, err, apperr.ValidationErr)
		assert.Zero(t, repo.calls)
	})

	t.Run("Should wrap repository errors", func(t *testing.T) {
		boom := errors.New("connection reset")
		repo := &fakeReportRepo{err: boom}

		_, err := NewReportService(repo).Summary(ctx, time.Time{}, time.Time{})
		require.ErrorIs(t, err, boom)
	})
}
