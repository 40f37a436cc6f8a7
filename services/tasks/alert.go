package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orgalerts/models"

	"github.com/hibiken/asynq"
)

const (
	TypeAlertCreated = "alert:created"
	QueueAlerts      = "alerts"
)

// NewAlertCreatedTask builds the task for one alert. The alert id doubles as
// the task id so a second enqueue within retention is rejected by the broker.
func NewAlertCreatedTask(payload models.AlertCreatedPayload, retention time.Duration) (*asynq.Task, []asynq.Option, error) {
	if payload.OrganizationID == "" || payload.AlertID == "" {
		return nil, nil, fmt.Errorf("alert task: organizationId and alertId are required")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAlertCreated, b)
	opts := []asynq.Option{
		asynq.TaskID(payload.AlertID),
		asynq.Queue(QueueAlerts),
		asynq.MaxRetry(3),
	}
	if retention > 0 {
		opts = append(opts, asynq.Retention(retention))
	}
	return task, opts, nil
}

// ParseAlertCreated decodes and validates a task payload.
func ParseAlertCreated(task *asynq.Task) (models.AlertCreatedPayload, error) {
	var p models.AlertCreatedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("alert task payload: %w", err)
	}
	if p.OrganizationID == "" || p.AlertID == "" {
		return p, fmt.Errorf("alert task payload: missing organizationId or alertId")
	}
	return p, nil
}

// Enqueuer is the part of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher emits alert-created events on the asynq queue.
type Publisher struct {
	client    Enqueuer
	retention time.Duration
}

func NewPublisher(client Enqueuer, retention time.Duration) *Publisher {
	return &Publisher{client: client, retention: retention}
}

func (p *Publisher) PublishAlertCreated(ctx context.Context, payload models.AlertCreatedPayload) error {
	task, opts, err := NewAlertCreatedTask(payload, p.retention)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s for %s: %w", TypeAlertCreated, payload.AlertID, err)
	}
	return nil
}
