package cron

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"orgalerts/database/repository/memory"
	"orgalerts/models"
	"orgalerts/services/alerts"
	"orgalerts/services/scheduled"
	"orgalerts/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap/zaptest"
)

type stubService struct {
	calls    []string
	err      error
	inFlight bool
}

func (s *stubService) HandleAlertCreated(ctx context.Context, alert *models.Alert) (alerts.Outcome, error) {
	s.calls = append(s.calls, alert.ID)
	return alerts.Outcome{AlertID: alert.ID, Duplicate: s.inFlight, InFlight: s.inFlight}, s.err
}

func (s *stubService) Redispatch(ctx context.Context, alert *models.Alert) (alerts.Outcome, error) {
	return s.HandleAlertCreated(ctx, alert)
}

func alertTask(t *testing.T, orgID, alertID string) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewAlertCreatedTask(models.AlertCreatedPayload{OrganizationID: orgID, AlertID: alertID}, 0)
	if err != nil {
		t.Fatalf("NewAlertCreatedTask error: %v", err)
	}
	return task
}

func TestHandleAlertCreated(t *testing.T) {
	t.Parallel()
	store := memory.NewAlertRepo()
	a := &models.Alert{ID: "a1", AlertContent: models.AlertContent{OrganizationID: "O", Title: "t"}}
	if err := store.Create(context.Background(), a); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	cases := []struct {
		name      string
		task      *asynq.Task
		svcErr    error
		inFlight  bool
		wantErr   bool
		skipRetry bool
		claimHeld bool
		wantCalls int
	}{
		{name: "dispatches stored alert", task: alertTask(t, "O", "a1"), wantCalls: 1},
		{name: "pipeline failure is acknowledged", task: alertTask(t, "O", "a1"), svcErr: errors.New("boom"), wantCalls: 1},
		{name: "held claim is retried", task: alertTask(t, "O", "a1"), inFlight: true, wantErr: true, claimHeld: true, wantCalls: 1},
		{name: "missing alert is acknowledged", task: alertTask(t, "O", "gone")},
		{name: "malformed payload skips retry", task: asynq.NewTask(tasks.TypeAlertCreated, []byte("{")), wantErr: true, skipRetry: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubService{err: tc.svcErr, inFlight: tc.inFlight}
			err := handleAlertCreated(store, svc, zaptest.NewLogger(t))(context.Background(), tc.task)
			if (err != nil) != tc.wantErr {
				t.Fatalf("handler error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.skipRetry && !errors.Is(err, asynq.SkipRetry) {
				t.Fatalf("handler error = %v, want SkipRetry", err)
			}
			if tc.claimHeld && !errors.Is(err, errClaimHeld) {
				t.Fatalf("handler error = %v, want errClaimHeld", err)
			}
			if len(svc.calls) != tc.wantCalls {
				t.Fatalf("pipeline calls = %d, want %d", len(svc.calls), tc.wantCalls)
			}
		})
	}
}

func TestRetryDelayWaitsOutClaimLease(t *testing.T) {
	t.Parallel()
	lease := alerts.LeaseTTL(9 * time.Minute)
	delay := retryDelay(lease)
	task := alertTask(t, "O", "a1")

	if got := delay(1, fmt.Errorf("alert a1: %w", errClaimHeld), task); got != lease {
		t.Fatalf("delay for held claim = %v, want %v", got, lease)
	}
	if got := delay(1, errors.New("load failed"), task); got >= lease {
		t.Fatalf("delay for load failure = %v, want default backoff below %v", got, lease)
	}
}

type noopPublisher struct{}

func (noopPublisher) PublishAlertCreated(context.Context, models.AlertCreatedPayload) error { return nil }

func TestNewScheduledRunnerRejectsBadSpec(t *testing.T) {
	t.Parallel()
	exec, err := scheduled.NewExecutor(memory.NewScheduledAlertRepo(), memory.NewAlertRepo(), noopPublisher{}, zaptest.NewLogger(t), 10)
	if err != nil {
		t.Fatalf("NewExecutor error: %v", err)
	}
	if _, err := NewScheduledRunner("every minute", exec, zaptest.NewLogger(t), time.Minute); err == nil {
		t.Fatal("NewScheduledRunner accepted an invalid spec")
	}
	r, err := NewScheduledRunner("@every 1m", exec, zaptest.NewLogger(t), time.Minute)
	if err != nil {
		t.Fatalf("NewScheduledRunner error: %v", err)
	}
	r.scan()
}
