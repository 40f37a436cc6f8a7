package alertRepo

import (
	"context"
	"time"

	"orgalerts/models"
)

// AlertRepository defines methods for live alert data access.
type AlertRepository interface {
	// Create inserts a new alert. A colliding id returns database.ErrDuplicate.
	Create(ctx context.Context, alert *models.Alert) error
	// GetByID retrieves an alert of an organization.
	GetByID(ctx context.Context, orgID, alertID string) (*models.Alert, error)
	// UpdateNotificationStatus records the outcome of a dispatch run.
	UpdateNotificationStatus(ctx context.Context, orgID, alertID string, status models.NotificationStatus) error
	// GetOrganizationName resolves the display name of an organization.
	GetOrganizationName(ctx context.Context, orgID string) (string, error)
}

// ScheduledAlertRepository defines methods for scheduled alert data access.
type ScheduledAlertRepository interface {
	Create(ctx context.Context, alert *models.ScheduledAlert) error
	GetByID(ctx context.Context, orgID, id string) (*models.ScheduledAlert, error)
	// FindDue returns active scheduled alerts with scheduledDate <= now, oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledAlert, error)
	// ApplyTransition updates a fired alert if its scheduledDate still equals
	// t.ExpectedDate. It reports false when another scanner got there first.
	ApplyTransition(ctx context.Context, id string, t models.ScheduledTransition) (bool, error)
	// Deactivate stops a scheduled alert from firing again.
	Deactivate(ctx context.Context, orgID, id string) error
}
