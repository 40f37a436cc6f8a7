package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"orgalerts/database/repository/memory"
	"orgalerts/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	mu     sync.Mutex
	fail   map[string]bool
	sent   []*messaging.Message
	cancel context.CancelFunc
	after  int
}

func (f *fakeSender) Send(ctx context.Context, m *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[m.Token] {
		return "", errors.New("registration-token-not-registered")
	}
	f.sent = append(f.sent, m)
	if f.cancel != nil && len(f.sent) == f.after {
		f.cancel()
	}
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func token(n int) string {
	return fmt.Sprintf("tok%03d-%s", n, strings.Repeat("x", 120))
}

func newService(t *testing.T, sender Sender, concurrency int) *DefaultNotificationService {
	t.Helper()
	svc, err := NewDefaultNotificationService(sender, memory.NewUserRepo(), zaptest.NewLogger(t), concurrency, 100)
	if err != nil {
		t.Fatalf("NewDefaultNotificationService error: %v", err)
	}
	return svc
}

func sampleAlert() *models.Alert {
	return &models.Alert{
		ID: "a1",
		AlertContent: models.AlertContent{
			OrganizationID:   "org",
			OrganizationName: "City",
			GroupID:          "g1",
			GroupName:        "Road Closures",
			Type:             "closure",
			Severity:         models.SeverityHigh,
			Title:            "Bridge closed",
			Description:      "Main St bridge closed until noon",
		},
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	t.Parallel()
	for _, concurrency := range []int{1, 4} {
		concurrency := concurrency
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			t.Parallel()
			tokens := []string{token(0), token(1), token(2), token(3), token(4)}
			sender := &fakeSender{fail: map[string]bool{tokens[2]: true}}
			svc := newService(t, sender, concurrency)

			res := svc.Dispatch(context.Background(), sampleAlert(), tokens)
			if res.Success != 4 || res.Failure != 1 || res.Skipped != 0 {
				t.Fatalf("result = %+v, want 4 success 1 failure", res)
			}
			if len(res.FailedTokens) != 1 || res.FailedTokens[0] != tokens[2] {
				t.Fatalf("FailedTokens = %v, want [%s]", res.FailedTokens, tokens[2])
			}
			if len(sender.sent) != 4 {
				t.Fatalf("sent %d messages, want 4", len(sender.sent))
			}
		})
	}
}

func TestDispatchCountsSkippedAfterDeadline(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &fakeSender{cancel: cancel, after: 2}
	svc := newService(t, sender, 1)

	tokens := []string{token(0), token(1), token(2), token(3), token(4)}
	res := svc.Dispatch(ctx, sampleAlert(), tokens)
	if res.Success != 2 {
		t.Fatalf("Success = %d, want 2", res.Success)
	}
	if res.Success+res.Failure+res.Skipped != len(tokens) {
		t.Fatalf("result %+v does not account for %d tokens", res, len(tokens))
	}
	if res.Skipped != 3 {
		t.Fatalf("Skipped = %d, want 3", res.Skipped)
	}
}

func TestBuildMessagePayload(t *testing.T) {
	t.Parallel()
	alert := sampleAlert()
	msg := BuildMessage(alert, BuildTitle(alert), token(7))

	if msg.Token != token(7) {
		t.Fatalf("Token = %q", msg.Token)
	}
	if msg.Notification.Body != alert.Description {
		t.Fatalf("Body = %q, want %q", msg.Notification.Body, alert.Description)
	}
	want := map[string]string{
		"alertId":          "a1",
		"organizationId":   "org",
		"organizationName": "City",
		"alertType":        "closure",
		"severity":         "high",
		"groupId":          "g1",
		"groupName":        "Road Closures",
	}
	for k, v := range want {
		if msg.Data[k] != v {
			t.Fatalf("Data[%s] = %q, want %q", k, msg.Data[k], v)
		}
	}
	if msg.Android == nil || msg.Android.Priority != "high" {
		t.Fatalf("high severity should set android high priority, got %+v", msg.Android)
	}

	alert.Severity = models.SeverityLow
	if BuildMessage(alert, "t", token(1)).Android != nil {
		t.Fatal("low severity should not override android priority")
	}
}

func TestBuildTitle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		severity models.Severity
		group    string
		want     string
	}{
		{name: "critical", severity: models.SeverityCritical, want: "🚨 CRITICAL: Flood"},
		{name: "high", severity: models.SeverityHigh, want: "⚠️ HIGH PRIORITY: Flood"},
		{name: "medium", severity: models.SeverityMedium, want: "📢 Flood"},
		{name: "low", severity: models.SeverityLow, want: "ℹ️ Flood"},
		{name: "unknown", severity: models.Severity("weird"), want: "ℹ️ Flood"},
		{name: "group", severity: models.SeverityCritical, group: "Zone A", want: "🚨 CRITICAL: [Zone A] Flood"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := &models.Alert{AlertContent: models.AlertContent{Severity: tt.severity, Title: "Flood"}}
			if tt.group != "" {
				a.GroupID = "gid"
				a.GroupName = tt.group
			}
			if got := BuildTitle(a); got != tt.want {
				t.Fatalf("BuildTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendUserPushNotification(t *testing.T) {
	t.Parallel()
	users := memory.NewUserRepo()
	users.Put("with-token", token(1))
	users.Put("short-token", "abc")
	sender := &fakeSender{}
	svc, _ := NewDefaultNotificationService(sender, users, zaptest.NewLogger(t), 1, 100)
	ctx := context.Background()

	id, err := svc.SendUserPushNotification(ctx, "with-token", "Test", "Hello", nil)
	if err != nil || id == "" {
		t.Fatalf("SendUserPushNotification = %q, %v", id, err)
	}
	if _, err := svc.SendUserPushNotification(ctx, "short-token", "Test", "Hello", nil); !errors.Is(err, ErrNoToken) {
		t.Fatalf("short token error = %v, want ErrNoToken", err)
	}
	if _, err := svc.SendUserPushNotification(ctx, "missing", "Test", "Hello", nil); err == nil {
		t.Fatal("expected error for missing user")
	}
}
