// Package worker runs periodic background tasks next to the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Task is one pass of a periodic job.
type Task func(ctx context.Context) error

type CleanupFunc func()

type Worker struct {
	name     string
	interval time.Duration
	logger   *slog.Logger
	task     Task

	stopChan chan struct{}
}

func New(name string, interval time.Duration, logger *slog.Logger, task Task) *Worker {
	return &Worker{
		name:     name,
		interval: interval,
		logger:   logger.With(slog.String("worker", name)),
		task:     task,
		stopChan: make(chan struct{}),
	}
}

// Run runs the task once right away, then every interval, until cleanup.
func (w *Worker) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		w.run(ctx)
	}()

	return func() {
		close(w.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
		}
		cancel()
		<-stoppedChan
	}
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.task(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "run task", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
		}
	}
}
