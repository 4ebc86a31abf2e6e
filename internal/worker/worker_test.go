package worker_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/service"
	"github.com/tuanvumaihuynh/orderdesk/internal/sheets"
	"github.com/tuanvumaihuynh/orderdesk/internal/worker"
)

var logger = slog.New(slog.DiscardHandler)

func TestWorkerRunsUntilCleanup(t *testing.T) {
	var runs atomic.Int32
	w := worker.New("test", 5*time.Millisecond, logger, func(context.Context) error {
		runs.Add(1)
		return errors.New("keeps going")
	})

	cleanup := w.Run(context.Background())
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	cleanup()

	stopped := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

type sweeperFunc func(ctx context.Context) (int64, error)

func (f sweeperFunc) SweepExpired(ctx context.Context) (int64, error) { return f(ctx) }

func TestSweepSessions(t *testing.T) {
	task := worker.SweepSessions(logger, sweeperFunc(func(context.Context) (int64, error) { return 3, nil }))
	require.NoError(t, task(context.Background()))

	task = worker.SweepSessions(logger, sweeperFunc(func(context.Context) (int64, error) { return 0, errors.New("db down") }))
	require.Error(t, task(context.Background()))
}

type importerFunc func(ctx context.Context, src sheets.Source) (service.ImportReport, error)

func (f importerFunc) ImportSheet(ctx context.Context, src sheets.Source) (service.ImportReport, error) {
	return f(ctx, src)
}

func TestSyncSheets(t *testing.T) {
	var seen []string
	importer := importerFunc(func(_ context.Context, src sheets.Source) (service.ImportReport, error) {
		seen = append(seen, src.SheetID)
		if src.SheetID == "bad" {
			return service.ImportReport{}, errors.New("forbidden")
		}
		return service.ImportReport{Source: src.String()}, nil
	})

	task := worker.SyncSheets(importer, []sheets.Source{{SheetID: "a", GID: "0"}, {SheetID: "bad", GID: "0"}, {SheetID: "c", GID: "1"}})
	err := task(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad:0")
	assert.Equal(t, []string{"a", "bad", "c"}, seen)
}
