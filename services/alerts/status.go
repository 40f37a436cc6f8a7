package alerts

import (
	"context"
	"fmt"
	"time"

	alertRepo "orgalerts/database/repository/alert"
	"orgalerts/models"
	"orgalerts/services/notification"

	"go.uber.org/zap"
)

const statusWriteTimeout = 10 * time.Second

// StatusWriter records the dispatch outcome on the alert document. Writes are
// best-effort: a failed write is logged and never undoes a delivery.
type StatusWriter struct {
	alerts alertRepo.AlertRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewStatusWriter(alerts alertRepo.AlertRepository, logger *zap.Logger) *StatusWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusWriter{alerts: alerts, logger: logger, now: time.Now}
}

// Delivered marks the alert as sent with the dispatch counters.
func (w *StatusWriter) Delivered(ctx context.Context, alert *models.Alert, res notification.Result) {
	status := models.NotificationStatus{
		Sent:     true,
		Count:    res.Success,
		Failures: res.Failure,
		Skipped:  res.Skipped,
		At:       w.now(),
	}
	if res.Skipped > 0 {
		status.Error = fmt.Sprintf("dispatch deadline exceeded: %d of %d tokens not attempted",
			res.Skipped, res.Skipped+res.Attempted())
	}
	w.write(ctx, alert, status)
}

// Failed marks the alert as not sent and stores the pipeline error.
func (w *StatusWriter) Failed(ctx context.Context, alert *models.Alert, cause error) {
	w.write(ctx, alert, models.NotificationStatus{
		Sent:  false,
		Error: cause.Error(),
		At:    w.now(),
	})
}

func (w *StatusWriter) write(ctx context.Context, alert *models.Alert, status models.NotificationStatus) {
	// The dispatch deadline may already be spent; the record is still wanted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	if err := w.alerts.UpdateNotificationStatus(ctx, alert.OrganizationID, alert.ID, status); err != nil {
		w.logger.Error("failed to record notification status",
			zap.String("alertId", alert.ID),
			zap.Bool("sent", status.Sent),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("notification status recorded",
		zap.String("alertId", alert.ID),
		zap.Bool("sent", status.Sent),
		zap.Int("count", status.Count),
		zap.Int("failures", status.Failures),
	)
}
