package monitor

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Watcher runs change detection on a cron schedule until the context is
// cancelled.
type Watcher struct {
	detector *Detector
	logger   *zap.Logger
}

// NewWatcher wraps a Detector for scheduled runs.
func NewWatcher(detector *Detector, logger *zap.Logger) *Watcher {
	return &Watcher{detector: detector, logger: logger}
}

// Watch schedules detection over domains with the given cron expression
// and blocks until ctx finishes. Detection runs are not overlapped: a run
// still in flight when the next tick fires makes the tick a no-op.
func (w *Watcher) Watch(ctx context.Context, schedule string, domains []string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(schedule, func() {
		w.logger.Info("scheduled detection run", zap.Int("domains", len(domains)))
		changes, err := w.detector.Run(ctx, domains)
		if err != nil {
			w.logger.Warn("detection run aborted", zap.Error(err))
			return
		}
		w.logger.Info("detection run complete", zap.Int("changes", len(changes)))
	})
	if err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return ctx.Err()
}
