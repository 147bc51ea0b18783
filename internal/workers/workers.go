package workers

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

func NewWorkers(logger *logger.Logger, workers ...Worker) *Workers {
	return &Workers{workers: workers, logger: logger}
}

// Add appends workers. It must not be called while Run is running.
func (w *Workers) Add(workers ...Worker) {
	w.workers = append(w.workers, workers...)
}

// Run starts every worker and waits for all of them. The first failure
// cancels the rest and is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, worker := range w.workers {
		g.Go(func() error {
			err := worker.Run(ctx)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	if err != nil {
		w.logger.Err(err).Msg("worker failed")
	}
	return err
}

// Every returns a worker calling fn once per interval until ctx is done.
// Errors from fn are logged and do not stop the worker. A non-positive
// interval disables the worker.
func Every(name string, interval time.Duration, logger *logger.Logger, fn func(ctx context.Context) error) Worker {
	return Func(func(ctx context.Context) error {
		if interval <= 0 {
			logger.Debug().Str("worker", name).Msg("worker disabled")
			return nil
		}

		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				start := time.Now()
				if err := fn(ctx); err != nil && ctx.Err() == nil {
					logger.Err(err).Str("worker", name).Msg("worker tick failed")
					continue
				}
				logger.Debug().Str("worker", name).Dur("duration", time.Since(start)).Msg("worker tick done")
			}
		}
	})
}
