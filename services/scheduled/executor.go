// Package scheduled fires scheduled alerts whose time has come.
package scheduled

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orgalerts/database"
	alertRepo "orgalerts/database/repository/alert"
	"orgalerts/models"
	"orgalerts/services/alerts"

	"go.uber.org/zap"
)

// ScanResult counts what one scan did.
type ScanResult struct {
	Due      int `json:"due"`
	Fired    int `json:"fired"`
	Ended    int `json:"ended"`
	Conflict int `json:"conflict"`
	Failed   int `json:"failed"`
}

// Executor materializes due scheduled alerts into live alerts.
type Executor struct {
	scheduled alertRepo.ScheduledAlertRepository
	alerts    alertRepo.AlertRepository
	publisher alerts.EventPublisher
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

func NewExecutor(
	scheduled alertRepo.ScheduledAlertRepository,
	alertStore alertRepo.AlertRepository,
	publisher alerts.EventPublisher,
	logger *zap.Logger,
	batchSize int,
) (*Executor, error) {
	if scheduled == nil || alertStore == nil || publisher == nil {
		return nil, fmt.Errorf("scheduled executor initialization error: missing dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Executor{
		scheduled: scheduled,
		alerts:    alertStore,
		publisher: publisher,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

// RunOnce fires every due scheduled alert once. A failing alert is logged and
// counted; it does not stop the others. The error is non-nil only when the
// due set could not be read.
func (e *Executor) RunOnce(ctx context.Context) (ScanResult, error) {
	now := e.now()
	due, err := e.scheduled.FindDue(ctx, now, e.batchSize)
	if err != nil {
		return ScanResult{}, fmt.Errorf("find due scheduled alerts: %w", err)
	}

	res := ScanResult{Due: len(due)}
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		sa := &due[i]
		applied, ended, err := e.fire(ctx, sa, now)
		switch {
		case err != nil:
			res.Failed++
			e.logger.Error("scheduled alert failed",
				zap.String("scheduledAlertId", sa.ID),
				zap.String("organizationId", sa.OrganizationID),
				zap.Error(err),
			)
		case !applied:
			res.Conflict++
			e.logger.Info("scheduled alert advanced elsewhere", zap.String("scheduledAlertId", sa.ID))
		default:
			res.Fired++
			if ended {
				res.Ended++
			}
		}
	}

	if res.Due > 0 {
		e.logger.Info("scheduled scan complete",
			zap.Int("due", res.Due),
			zap.Int("fired", res.Fired),
			zap.Int("ended", res.Ended),
			zap.Int("failed", res.Failed),
		)
	}
	return res, nil
}

// AlertIDFor is the id of the live alert created by the n-th firing of sa.
func AlertIDFor(scheduledID string, n int) string {
	return fmt.Sprintf("%s-%d", scheduledID, n)
}

func (e *Executor) fire(ctx context.Context, sa *models.ScheduledAlert, now time.Time) (applied, ended bool, err error) {
	count := sa.ExecutionCount + 1
	alert := &models.Alert{
		ID:               AlertIDFor(sa.ID, count),
		AlertContent:     sa.AlertContent,
		IsActive:         true,
		CreatedAt:        now,
		ScheduledAlertID: sa.ID,
	}

	if err := e.alerts.Create(ctx, alert); err != nil {
		if !errors.Is(err, database.ErrDuplicate) {
			return false, false, fmt.Errorf("materialize alert %s: %w", alert.ID, err)
		}
		e.logger.Info("alert already materialized, resuming", zap.String("alertId", alert.ID))
	}

	payload := models.AlertCreatedPayload{OrganizationID: alert.OrganizationID, AlertID: alert.ID}
	if err := e.publisher.PublishAlertCreated(ctx, payload); err != nil {
		return false, false, fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}

	t := models.ScheduledTransition{
		ExpectedDate:   sa.ScheduledDate,
		ExecutionCount: count,
		LastAlertID:    alert.ID,
		At:             now,
	}
	if sa.IsRecurring && sa.RecurrencePattern != nil {
		next := NextOccurrence(sa.ScheduledDate, *sa.RecurrencePattern)
		if RecurrenceEnded(*sa.RecurrencePattern, next, count) {
			t.RecurrenceEnded = true
			t.Executed = true
			ended = true
		} else {
			t.IsActive = true
			t.NextDate = &next
		}
	} else {
		t.Executed = true
		ended = true
	}

	applied, err = e.scheduled.ApplyTransition(ctx, sa.ID, t)
	if err != nil {
		return false, false, fmt.Errorf("advance scheduled alert %s: %w", sa.ID, err)
	}
	return applied, ended && applied, nil
}
