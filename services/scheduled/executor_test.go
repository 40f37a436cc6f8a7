package scheduled

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"orgalerts/database/repository/memory"
	"orgalerts/models"

	"go.uber.org/zap/zaptest"
)

type fakePublisher struct {
	mu   sync.Mutex
	got  []models.AlertCreatedPayload
	fail map[string]error
}

func (p *fakePublisher) PublishAlertCreated(ctx context.Context, payload models.AlertCreatedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail[payload.AlertID]; err != nil {
		return err
	}
	p.got = append(p.got, payload)
	return nil
}

func newExecutor(t *testing.T, now time.Time) (*Executor, *memory.ScheduledAlertRepo, *memory.AlertRepo, *fakePublisher) {
	t.Helper()
	sched := memory.NewScheduledAlertRepo()
	live := memory.NewAlertRepo()
	pub := &fakePublisher{fail: map[string]error{}}
	e, err := NewExecutor(sched, live, pub, zaptest.NewLogger(t), 50)
	if err != nil {
		t.Fatalf("NewExecutor error: %v", err)
	}
	e.now = func() time.Time { return now }
	return e, sched, live, pub
}

func seed(t *testing.T, repo *memory.ScheduledAlertRepo, sa models.ScheduledAlert) {
	t.Helper()
	sa.IsActive = true
	sa.OrganizationID = "O"
	sa.Title = "Street sweeping"
	if err := repo.Create(context.Background(), &sa); err != nil {
		t.Fatalf("seed %s: %v", sa.ID, err)
	}
}

func TestOneShotFiresOnce(t *testing.T) {
	t.Parallel()
	now := day(2025, 5, 1)
	e, sched, live, pub := newExecutor(t, now)
	seed(t, sched, models.ScheduledAlert{ID: "s1", ScheduledDate: now.Add(-time.Minute)})
	seed(t, sched, models.ScheduledAlert{ID: "later", ScheduledDate: now.Add(time.Hour)})

	res, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if res.Due != 1 || res.Fired != 1 || res.Ended != 1 {
		t.Fatalf("result = %+v, want 1 due fired ended", res)
	}
	sa, _ := sched.Get("s1")
	if sa.IsActive || !sa.Executed || sa.ExecutionCount != 1 || sa.LastAlertID != "s1-1" {
		t.Fatalf("s1 = %+v, want inactive executed count 1", sa)
	}
	alerts := live.All()
	if len(alerts) != 1 || alerts[0].ID != "s1-1" || alerts[0].ScheduledAlertID != "s1" || !alerts[0].IsActive {
		t.Fatalf("live alerts = %+v", alerts)
	}
	if len(pub.got) != 1 || pub.got[0].AlertID != "s1-1" || pub.got[0].OrganizationID != "O" {
		t.Fatalf("published = %+v", pub.got)
	}

	res, _ = e.RunOnce(context.Background())
	if res.Due != 0 || len(pub.got) != 1 {
		t.Fatalf("second scan = %+v with %d publishes, want nothing", res, len(pub.got))
	}
}

func TestWeeklyAdvancesFromOwnDate(t *testing.T) {
	t.Parallel()
	start := day(2025, 1, 1)
	e, sched, _, _ := newExecutor(t, start.Add(3*time.Hour))
	seed(t, sched, models.ScheduledAlert{
		ID:                "w",
		ScheduledDate:     start,
		IsRecurring:       true,
		RecurrencePattern: &models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 2},
	})

	if _, err := e.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	sa, _ := sched.Get("w")
	if !sa.IsActive || sa.Executed || !sa.ScheduledDate.Equal(day(2025, 1, 15)) || sa.ExecutionCount != 1 {
		t.Fatalf("w = active %v executed %v date %v count %d, want active on Jan 15",
			sa.IsActive, sa.Executed, sa.ScheduledDate, sa.ExecutionCount)
	}
}

func TestRecurrenceStopsAtEndDate(t *testing.T) {
	t.Parallel()
	start := day(2025, 1, 1)
	end := day(2025, 1, 5)
	e, sched, _, _ := newExecutor(t, start)
	seed(t, sched, models.ScheduledAlert{
		ID:                "d",
		ScheduledDate:     start,
		IsRecurring:       true,
		RecurrencePattern: &models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1, EndDate: &end},
	})

	res, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	sa, _ := sched.Get("d")
	if sa.IsActive || !sa.RecurrenceEnded || res.Ended != 1 {
		t.Fatalf("d = active %v ended %v, result %+v; want recurrence ended", sa.IsActive, sa.RecurrenceEnded, res)
	}
}

func TestRecurrenceStopsAtOccurrences(t *testing.T) {
	t.Parallel()
	start := day(2025, 1, 1)
	e, sched, live, _ := newExecutor(t, start)
	seed(t, sched, models.ScheduledAlert{
		ID:                "o",
		ScheduledDate:     start,
		IsRecurring:       true,
		RecurrencePattern: &models.RecurrencePattern{Frequency: models.FrequencyDaily, Interval: 1, Occurrences: 2},
	})

	for i := 0; i < 3; i++ {
		e.now = func() time.Time { return start.AddDate(0, 0, i) }
		if _, err := e.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce %d error: %v", i, err)
		}
	}
	sa, _ := sched.Get("o")
	if sa.IsActive || !sa.RecurrenceEnded || sa.ExecutionCount != 2 {
		t.Fatalf("o = active %v ended %v count %d, want ended after 2", sa.IsActive, sa.RecurrenceEnded, sa.ExecutionCount)
	}
	if n := len(live.All()); n != 2 {
		t.Fatalf("materialized %d alerts, want 2", n)
	}
}

func TestFailuresAreIsolated(t *testing.T) {
	t.Parallel()
	now := day(2025, 6, 1)
	e, sched, _, pub := newExecutor(t, now)
	seed(t, sched, models.ScheduledAlert{ID: "a", ScheduledDate: now.Add(-3 * time.Minute)})
	seed(t, sched, models.ScheduledAlert{ID: "b", ScheduledDate: now.Add(-2 * time.Minute)})
	seed(t, sched, models.ScheduledAlert{ID: "c", ScheduledDate: now.Add(-1 * time.Minute)})
	pub.fail["a-1"] = errors.New("queue unavailable")
	sched.TransitionErr["b"] = errors.New("write conflict")

	res, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if res.Due != 3 || res.Failed != 2 || res.Fired != 1 {
		t.Fatalf("result = %+v, want 3 due 2 failed 1 fired", res)
	}
	if c, _ := sched.Get("c"); c.IsActive {
		t.Fatal("c should have fired despite earlier failures")
	}
	if a, _ := sched.Get("a"); !a.IsActive || a.ExecutionCount != 0 {
		t.Fatalf("a = %+v, want untouched for the next scan", a)
	}
}

func TestResumeAfterMaterializedAlert(t *testing.T) {
	t.Parallel()
	now := day(2025, 6, 1)
	e, sched, live, pub := newExecutor(t, now)
	seed(t, sched, models.ScheduledAlert{ID: "r", ScheduledDate: now.Add(-time.Minute)})
	pub.fail["r-1"] = errors.New("queue unavailable")

	if res, _ := e.RunOnce(context.Background()); res.Failed != 1 {
		t.Fatalf("first scan = %+v, want failure", res)
	}
	delete(pub.fail, "r-1")
	res, err := e.RunOnce(context.Background())
	if err != nil || res.Fired != 1 {
		t.Fatalf("second scan = %+v, %v; want fired", res, err)
	}
	if n := len(live.All()); n != 1 {
		t.Fatalf("materialized %d alerts, want 1", n)
	}
}

func TestStaleScanLosesTransition(t *testing.T) {
	t.Parallel()
	now := day(2025, 6, 1)
	e, sched, _, _ := newExecutor(t, now)
	seed(t, sched, models.ScheduledAlert{
		ID:                "x",
		ScheduledDate:     now.Add(-time.Minute),
		IsRecurring:       true,
		RecurrencePattern: &models.RecurrencePattern{Frequency: models.FrequencyDaily, Interval: 1},
	})
	stale, _ := sched.Get("x")

	if _, err := e.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	applied, _, err := e.fire(context.Background(), &stale, now)
	if err != nil || applied {
		t.Fatalf("stale fire applied=%v err=%v, want conflict", applied, err)
	}
}
