package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/orderdesk/internal/service"
	"github.com/tuanvumaihuynh/orderdesk/internal/sheets"
)

type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SweepSessions deletes expired sessions.
func SweepSessions(logger *slog.Logger, sweeper SessionSweeper) Task {
	return func(ctx context.Context) error {
		n, err := sweeper.SweepExpired(ctx)
		if err != nil {
			return fmt.Errorf("sweep expired sessions: %w", err)
		}
		if n > 0 {
			logger.InfoContext(ctx, "expired sessions removed", slog.Int64("count", n))
		}
		return nil
	}
}

type SheetImporter interface {
	ImportSheet(ctx context.Context, src sheets.Source) (service.ImportReport, error)
}

// SyncSheets imports new rows of every source. A failing source does not stop
// the others.
func SyncSheets(importer SheetImporter, sources []sheets.Source) Task {
	return func(ctx context.Context) error {
		var errs []error
		for _, src := range sources {
			if _, err := importer.ImportSheet(ctx, src); err != nil {
				errs = append(errs, fmt.Errorf("import sheet %s: %w", src, err))
			}
		}
		return errors.Join(errs...)
	}
}
