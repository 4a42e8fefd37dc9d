package postgres

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredStateDeleter is implemented by state stores that need sweeping
type ExpiredStateDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StateJanitor periodically removes expired OAuth state rows
type StateJanitor struct {
	store    ExpiredStateDeleter
	logger   *slog.Logger
	interval time.Duration
}

// NewStateJanitor creates a janitor that sweeps every interval
func NewStateJanitor(store ExpiredStateDeleter, interval time.Duration, logger *slog.Logger) *StateJanitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StateJanitor{store: store, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled
func (j *StateJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *StateJanitor) sweep(ctx context.Context) {
	deleted, err := j.store.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("failed to sweep expired oauth states", slog.String("error", err.Error()))
		return
	}
	if deleted > 0 {
		j.logger.Debug("swept expired oauth states", slog.Int64("count", deleted))
	}
}
