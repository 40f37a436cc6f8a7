package cron

import (
	"context"
	"fmt"
	"time"

	"orgalerts/services/scheduled"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ScheduledRunner polls for due scheduled alerts on a cron spec.
type ScheduledRunner struct {
	c        *cron.Cron
	executor *scheduled.Executor
	logger   *zap.Logger
	timeout  time.Duration
}

// NewScheduledRunner parses spec (standard five fields or a descriptor such as
// "@every 1m") and registers the scan. Overlapping scans are skipped.
func NewScheduledRunner(spec string, executor *scheduled.Executor, logger *zap.Logger, timeout time.Duration) (*ScheduledRunner, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	r := &ScheduledRunner{
		executor: executor,
		logger:   logger,
		timeout:  timeout,
	}
	r.c = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := r.c.AddFunc(spec, r.scan); err != nil {
		return nil, fmt.Errorf("invalid scheduled poll spec %q: %w", spec, err)
	}
	return r, nil
}

func (r *ScheduledRunner) scan() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if _, err := r.executor.RunOnce(ctx); err != nil {
		r.logger.Error("scheduled alert scan failed", zap.Error(err))
	}
}

func (r *ScheduledRunner) Start() {
	r.logger.Info("scheduled alert poller started")
	r.c.Start()
}

// Stop waits for a running scan to finish or ctx to expire.
func (r *ScheduledRunner) Stop(ctx context.Context) {
	select {
	case <-r.c.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn("scheduled alert poller stop timed out")
	}
}
