package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"orgalerts/database"
	"orgalerts/models"
)

// AlertRepo implements alertRepo.AlertRepository.
type AlertRepo struct {
	mu     sync.Mutex
	alerts map[string]*models.Alert
	orgs   map[string]string

	StatusWrites int
	StatusErr    error
}

func NewAlertRepo() *AlertRepo {
	return &AlertRepo{alerts: map[string]*models.Alert{}, orgs: map[string]string{}}
}

// PutOrganization seeds an organization name.
func (r *AlertRepo) PutOrganization(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[id] = name
}

// All returns copies of every stored alert ordered by id.
func (r *AlertRepo) All() []models.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *AlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alerts[alert.ID]; ok {
		return fmt.Errorf("alert %s: %w", alert.ID, database.ErrDuplicate)
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	cp := *alert
	r.alerts[alert.ID] = &cp
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, orgID, alertID string) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[alertID]
	if !ok || a.OrganizationID != orgID {
		return nil, fmt.Errorf("alert %s: %w", alertID, database.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (r *AlertRepo) UpdateNotificationStatus(ctx context.Context, orgID, alertID string, status models.NotificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.StatusErr != nil {
		return r.StatusErr
	}
	a, ok := r.alerts[alertID]
	if !ok || a.OrganizationID != orgID {
		return fmt.Errorf("alert %s: %w", alertID, database.ErrNotFound)
	}
	r.StatusWrites++
	at := status.At
	a.NotificationsSent = status.Sent
	a.NotificationCount = status.Count
	a.NotificationFailures = status.Failures
	a.NotificationSkipped = status.Skipped
	if status.Sent {
		a.NotificationSentAt = &at
	}
	a.NotificationError = status.Error
	if status.Error != "" {
		a.NotificationErrorAt = &at
	} else {
		a.NotificationErrorAt = nil
	}
	return nil
}

func (r *AlertRepo) GetOrganizationName(ctx context.Context, orgID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.orgs[orgID]
	if !ok {
		return "", fmt.Errorf("organization %s: %w", orgID, database.ErrNotFound)
	}
	return name, nil
}

// ScheduledAlertRepo implements alertRepo.ScheduledAlertRepository.
type ScheduledAlertRepo struct {
	mu    sync.Mutex
	items map[string]*models.ScheduledAlert

	// TransitionErr forces ApplyTransition to fail for the given ids.
	TransitionErr map[string]error
}

func NewScheduledAlertRepo() *ScheduledAlertRepo {
	return &ScheduledAlertRepo{items: map[string]*models.ScheduledAlert{}, TransitionErr: map[string]error{}}
}

// Get returns a copy of a stored scheduled alert.
func (r *ScheduledAlertRepo) Get(id string) (models.ScheduledAlert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.items[id]
	if !ok {
		return models.ScheduledAlert{}, false
	}
	return *sa, true
}

func (r *ScheduledAlertRepo) Create(ctx context.Context, alert *models.ScheduledAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[alert.ID]; ok {
		return fmt.Errorf("scheduled alert %s: %w", alert.ID, database.ErrDuplicate)
	}
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	cp := *alert
	r.items[alert.ID] = &cp
	return nil
}

func (r *ScheduledAlertRepo) GetByID(ctx context.Context, orgID, id string) (*models.ScheduledAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.items[id]
	if !ok || sa.OrganizationID != orgID {
		return nil, fmt.Errorf("scheduled alert %s: %w", id, database.ErrNotFound)
	}
	cp := *sa
	return &cp, nil
}

func (r *ScheduledAlertRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []models.ScheduledAlert
	for _, sa := range r.items {
		if sa.IsActive && !sa.ScheduledDate.After(now) {
			due = append(due, *sa)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledDate.Before(due[j].ScheduledDate) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *ScheduledAlertRepo) ApplyTransition(ctx context.Context, id string, t models.ScheduledTransition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.TransitionErr[id]; err != nil {
		return false, err
	}
	sa, ok := r.items[id]
	if !ok || !sa.IsActive || !sa.ScheduledDate.Equal(t.ExpectedDate) {
		return false, nil
	}
	at := t.At
	sa.IsActive = t.IsActive
	sa.Executed = t.Executed
	sa.RecurrenceEnded = t.RecurrenceEnded
	sa.ExecutionCount = t.ExecutionCount
	sa.ExecutedAt = &at
	sa.LastAlertID = t.LastAlertID
	sa.UpdatedAt = at
	if t.NextDate != nil {
		sa.ScheduledDate = *t.NextDate
	}
	return true, nil
}

func (r *ScheduledAlertRepo) Deactivate(ctx context.Context, orgID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.items[id]
	if !ok || sa.OrganizationID != orgID {
		return fmt.Errorf("scheduled alert %s: %w", id, database.ErrNotFound)
	}
	sa.IsActive = false
	return nil
}
