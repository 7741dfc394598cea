package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron"
)

// Scheduler reloads the dataset on a cron schedule, e.g. "@daily" or
// "0 0 3 * * *" (seconds first).
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

func NewScheduler(spec string, r Reloader, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "refresh_scheduler"))

	s := &Scheduler{cron: cron.New(), timeout: timeout}
	err := s.cron.AddFunc(spec, func() {
		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		if err := r.Reload(ctx); err != nil {
			logger.Error("scheduled reload failed", slog.Any("error", err))
			return
		}
		logger.Info("scheduled reload complete")
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid refresh schedule %q", spec)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

func (s *Scheduler) Stop() { s.cron.Stop() }
