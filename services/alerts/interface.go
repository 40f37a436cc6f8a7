// Package alerts turns one alert document into individual push notifications.
package alerts

import (
	"context"

	"orgalerts/models"
)

// EventPublisher emits the alert-created event that starts a dispatch run.
type EventPublisher interface {
	PublishAlertCreated(ctx context.Context, payload models.AlertCreatedPayload) error
}

// AlertService is the entry point used by the queue worker and the HTTP layer.
type AlertService interface {
	// HandleAlertCreated runs the fan-out for a freshly created alert. Duplicate
	// deliveries of the same event are detected and skipped.
	HandleAlertCreated(ctx context.Context, alert *models.Alert) (Outcome, error)
	// Redispatch runs the fan-out again regardless of previous runs.
	Redispatch(ctx context.Context, alert *models.Alert) (Outcome, error)
}
