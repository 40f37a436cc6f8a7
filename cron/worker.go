package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orgalerts/database"
	alertRepo "orgalerts/database/repository/alert"
	"orgalerts/services/alerts"
	"orgalerts/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// errClaimHeld hands an alert back to asynq while another run holds its claim.
var errClaimHeld = errors.New("dispatch claim held by another run")

// AlertWorker consumes alert-created tasks and runs the fan-out pipeline.
type AlertWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewAlertWorker builds the asynq server for the alerts queue. claimLease is the
// dispatch claim TTL; a task skipped over a held claim is retried after it.
func NewAlertWorker(
	redisOpts asynq.RedisClientOpt,
	concurrency int,
	claimLease time.Duration,
	alertStore alertRepo.AlertRepository,
	svc alerts.AlertService,
	logger *zap.Logger,
) *AlertWorker {
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueAlerts: 1,
			},
			RetryDelayFunc: retryDelay(claimLease),
			Logger:         logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAlertCreated, handleAlertCreated(alertStore, svc, logger))

	return &AlertWorker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *AlertWorker) Start() {
	go func() {
		w.logger.Info("starting alert worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := w.srv.Start(w.mux); err != nil {
				w.logger.Error("alert worker failed to start",
					zap.Int("attempt", attempts),
					zap.Int("maxAttempts", maxAttempts),
					zap.Error(err),
				)
				if attempts == maxAttempts {
					w.logger.Fatal("alert worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
				continue
			}
			return
		}
	}()
}

// Shutdown stops fetching new tasks and waits for active ones.
func (w *AlertWorker) Shutdown() {
	w.srv.Shutdown()
}

func retryDelay(claimLease time.Duration) asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		if errors.Is(err, errClaimHeld) {
			return claimLease
		}
		return asynq.DefaultRetryDelayFunc(n, err, task)
	}
}

// handleAlertCreated acknowledges every event whose pipeline ran, successful or
// not. A failed alert load or a held dispatch claim is handed back to asynq.
func handleAlertCreated(alertStore alertRepo.AlertRepository, svc alerts.AlertService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseAlertCreated(task)
		if err != nil {
			logger.Error("invalid alert task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		alert, err := alertStore.GetByID(ctx, p.OrganizationID, p.AlertID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				logger.Warn("alert vanished before dispatch", zap.String("alertId", p.AlertID))
				return nil
			}
			return fmt.Errorf("load alert %s: %w", p.AlertID, err)
		}

		out, err := svc.HandleAlertCreated(ctx, alert)
		if err != nil {
			logger.Error("alert dispatch failed",
				zap.String("alertId", p.AlertID),
				zap.Error(err),
			)
			return nil
		}
		if out.InFlight {
			logger.Info("alert claimed by another run, retrying after lease", zap.String("alertId", p.AlertID))
			return fmt.Errorf("alert %s: %w", p.AlertID, errClaimHeld)
		}
		logger.Info("alert task processed",
			zap.String("alertId", p.AlertID),
			zap.Bool("duplicate", out.Duplicate),
			zap.Int("delivered", out.Result.Success),
		)
		return nil
	}
}
