package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"orgalerts/config"
	"orgalerts/database/repository/memory"
	"orgalerts/handlers"
	"orgalerts/models"
	"orgalerts/routes"
	"orgalerts/services/admin"
	"orgalerts/services/alerts"
	"orgalerts/services/notification"
	"orgalerts/services/preferences"
	"orgalerts/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "handlers-test-secret"
	os.Exit(m.Run())
}

type capturePublisher struct {
	mu  sync.Mutex
	got []models.AlertCreatedPayload
	err error
}

func (p *capturePublisher) PublishAlertCreated(ctx context.Context, payload models.AlertCreatedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, payload)
	return nil
}

type stubAlertService struct {
	mu    sync.Mutex
	calls int
}

func (s *stubAlertService) HandleAlertCreated(ctx context.Context, a *models.Alert) (alerts.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return alerts.Outcome{AlertID: a.ID}, nil
}

func (s *stubAlertService) Redispatch(ctx context.Context, a *models.Alert) (alerts.Outcome, error) {
	return alerts.Outcome{AlertID: a.ID, Eligible: 3, Tokens: 2, Result: notification.Result{Success: 2}}, nil
}

type nopSender struct{}

func (nopSender) Send(context.Context, *messaging.Message) (string, error) { return "id", nil }

type server struct {
	engine    http.Handler
	alerts    *memory.AlertRepo
	scheduled *memory.ScheduledAlertRepo
	followers *memory.FollowerRepo
	users     *memory.UserRepo
	publisher *capturePublisher
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{
		alerts:    memory.NewAlertRepo(),
		scheduled: memory.NewScheduledAlertRepo(),
		followers: memory.NewFollowerRepo(),
		users:     memory.NewUserRepo(),
		publisher: &capturePublisher{},
	}
	s.alerts.PutOrganization("O", "Springfield")
	logger := zaptest.NewLogger(t)

	store, err := preferences.NewDefaultStore(s.followers)
	if err != nil {
		t.Fatalf("NewDefaultStore error: %v", err)
	}
	notifier, err := notification.NewDefaultNotificationService(nopSender{}, s.users, logger, 1, 100)
	if err != nil {
		t.Fatalf("NewDefaultNotificationService error: %v", err)
	}
	adminSvc, err := admin.NewDefaultAdminService(s.users, s.followers, &memory.LegacyRepo{}, notifier, nil,
		admin.Settings{FirebaseConfigured: true, MinTokenLength: 100}, logger)
	if err != nil {
		t.Fatalf("NewDefaultAdminService error: %v", err)
	}

	hb := &handlers.HandlerBundle{
		Alerts:      handlers.NewAlertHandler(s.alerts, s.publisher, &stubAlertService{}),
		Scheduled:   handlers.NewScheduledAlertHandler(s.scheduled, s.alerts),
		Preferences: handlers.NewPreferenceHandler(store),
		Callables:   handlers.NewCallableHandler(adminSvc),
	}
	r := gin.New()
	routes.RegisterRoutes(r, hb, 1000)
	s.engine = r
	return s
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return tok
}

func (s *server) call(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestCreateAndReadAlert(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	alice := bearer(t, "alice", "")

	w := s.call(http.MethodPost, "/api/organizations/O/alerts", alice, map[string]string{
		"title": "Boil water notice", "severity": "CRITICAL", "groupId": "g1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body %s", w.Code, w.Body)
	}
	var created models.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.PostedByUserID != "alice" || created.OrganizationName != "Springfield" || created.Severity != models.SeverityCritical {
		t.Fatalf("created = %+v", created)
	}
	if len(s.publisher.got) != 1 || s.publisher.got[0].AlertID != created.ID {
		t.Fatalf("published = %+v, want event for %s", s.publisher.got, created.ID)
	}

	if w := s.call(http.MethodGet, "/api/organizations/O/alerts/"+created.ID, alice, nil); w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w := s.call(http.MethodGet, "/api/organizations/O/alerts/nope", alice, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get unknown status = %d, want 404", w.Code)
	}
	if w := s.call(http.MethodPost, "/api/organizations/O/alerts", alice, map[string]string{"title": "  "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank title status = %d, want 400", w.Code)
	}
	if w := s.call(http.MethodPost, "/api/organizations/O/alerts", "", map[string]string{"title": "x"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", w.Code)
	}
}

func TestRedispatchRequiresAdmin(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	_ = s.alerts.Create(context.Background(), &models.Alert{ID: "a1", AlertContent: models.AlertContent{OrganizationID: "O"}})

	if w := s.call(http.MethodPost, "/api/organizations/O/alerts/a1/dispatch", bearer(t, "alice", ""), nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", w.Code)
	}
	w := s.call(http.MethodPost, "/api/organizations/O/alerts/a1/dispatch", bearer(t, "root", utils.RoleAdmin), nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":2`) {
		t.Fatalf("admin status = %d body %s", w.Code, w.Body)
	}
}

func TestScheduledAlertEndpoints(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	tok := bearer(t, "alice", "")
	when := time.Date(2030, 1, 31, 8, 0, 0, 0, time.UTC)

	bad := map[string]any{"title": "Sweeping", "scheduledDate": when, "isRecurring": true,
		"recurrencePattern": map[string]any{"frequency": "hourly"}}
	if w := s.call(http.MethodPost, "/api/organizations/O/scheduled-alerts", tok, bad); w.Code != http.StatusBadRequest {
		t.Fatalf("bad frequency status = %d, want 400", w.Code)
	}

	good := map[string]any{"title": "Sweeping", "scheduledDate": when, "isRecurring": true,
		"recurrencePattern": map[string]any{"frequency": "monthly", "interval": 0}}
	w := s.call(http.MethodPost, "/api/organizations/O/scheduled-alerts", tok, good)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body %s", w.Code, w.Body)
	}
	var sa models.ScheduledAlert
	_ = json.Unmarshal(w.Body.Bytes(), &sa)
	if !sa.IsActive || sa.RecurrencePattern == nil || sa.RecurrencePattern.Interval != 1 {
		t.Fatalf("scheduled = %+v, want active with interval normalized to 1", sa)
	}

	if w := s.call(http.MethodDelete, "/api/organizations/O/scheduled-alerts/"+sa.ID, tok, nil); w.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d", w.Code)
	}
	if got, _ := s.scheduled.Get(sa.ID); got.IsActive {
		t.Fatal("scheduled alert still active")
	}
	if w := s.call(http.MethodDelete, "/api/organizations/O/scheduled-alerts/missing", tok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("deactivate unknown status = %d, want 404", w.Code)
	}
}

func TestPreferenceEndpoints(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	tok := bearer(t, "bob", "")

	if w := s.call(http.MethodPost, "/api/organizations/O/preferences/groups/g1/toggle", tok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("toggle before follow status = %d, want 404", w.Code)
	}
	if w := s.call(http.MethodPost, "/api/organizations/O/follow", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("follow status = %d", w.Code)
	}
	w := s.call(http.MethodPost, "/api/organizations/O/preferences/groups/g1/toggle", tok, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"enabled":false`) {
		t.Fatalf("toggle status = %d body %s, want disabled", w.Code, w.Body)
	}
	if w := s.call(http.MethodPut, "/api/organizations/O/preferences/groups/g2", tok, map[string]bool{"enabled": false}); w.Code != http.StatusOK {
		t.Fatalf("set status = %d", w.Code)
	}
	if w := s.call(http.MethodPut, "/api/organizations/O/preferences/groups/a.b", tok, map[string]bool{"enabled": true}); w.Code != http.StatusBadRequest {
		t.Fatalf("dotted group status = %d, want 400", w.Code)
	}
	if w := s.call(http.MethodPut, "/api/organizations/O/preferences/groups/g3", tok, map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing enabled status = %d, want 400", w.Code)
	}
	if prefs, _ := s.followers.Snapshot("O", "bob"); prefs["g1"] || prefs["g2"] || len(prefs) != 2 {
		t.Fatalf("prefs = %v, want g1=false g2=false", prefs)
	}
	if w := s.call(http.MethodDelete, "/api/organizations/O/follow", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("unfollow status = %d", w.Code)
	}
	if w := s.call(http.MethodGet, "/api/organizations/O/preferences", tok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("preferences after unfollow status = %d, want 404", w.Code)
	}
}

func TestCallableErrorMapping(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	alice := bearer(t, "alice", "")
	root := bearer(t, "root", utils.RoleAdmin)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"short token", http.MethodPost, "/api/callable/registerDeliveryToken", alice, map[string]string{"token": "abc"}, http.StatusBadRequest},
		{"register ok", http.MethodPost, "/api/callable/registerDeliveryToken", alice, map[string]string{"token": strings.Repeat("t", 150)}, http.StatusOK},
		{"test to self", http.MethodPost, "/api/callable/testNotification", alice, map[string]string{"title": "t", "body": "b"}, http.StatusOK},
		{"test to unknown", http.MethodPost, "/api/callable/testNotification", root, map[string]string{"userId": "ghost", "title": "t", "body": "b"}, http.StatusNotFound},
		{"test to other user", http.MethodPost, "/api/callable/testNotification", alice, map[string]string{"userId": "bob", "title": "t", "body": "b"}, http.StatusForbidden},
		{"admin as user", http.MethodPost, "/api/admin/cleanupInvalidTokens", alice, nil, http.StatusForbidden},
		{"admin cleanup", http.MethodPost, "/api/admin/cleanupInvalidTokens", root, nil, http.StatusOK},
		{"diagnose", http.MethodGet, "/api/admin/diagnoseConfiguration", root, nil, http.StatusOK},
		{"migrate", http.MethodPost, "/api/admin/migrateFollowers", root, nil, http.StatusOK},
		{"no auth", http.MethodPost, "/api/callable/testNotification", "", nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		if w := s.call(tc.method, tc.path, tc.token, tc.body); w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d (body %s)", tc.name, w.Code, tc.want, w.Body)
		}
	}
}

func TestCreateAlertFallsBackWhenQueueDown(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	s.publisher.err = errors.New("redis unavailable")

	w := s.call(http.MethodPost, "/api/organizations/O/alerts", bearer(t, "alice", ""), map[string]string{"title": "x"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 even when the queue is down", w.Code)
	}
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()

	r := gin.New()
	routes.RegisterHealthRoute(r, &handlers.HandlerBundle{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status without monitor = %d, want 200", w.Code)
	}

	monitor := utils.NewHealthMonitor(nil, nil)
	monitor.Check(context.Background())
	r = gin.New()
	routes.RegisterHealthRoute(r, &handlers.HandlerBundle{Health: monitor})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status with unreachable mongo = %d, want 503", w.Code)
	}
}

func TestCreateRejectsUnstorableGroupID(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	tok := bearer(t, "alice", "")
	when := time.Date(2030, 1, 31, 8, 0, 0, 0, time.UTC)

	for _, group := range []string{"zone.a", "$x", " g1 x.y"} {
		live := map[string]any{"title": "Flood", "groupId": group}
		if w := s.call(http.MethodPost, "/api/organizations/O/alerts", tok, live); w.Code != http.StatusBadRequest ||
			!strings.Contains(w.Body.String(), `"invalid-argument"`) {
			t.Errorf("alert groupId %q: status = %d body %s, want 400 invalid-argument", group, w.Code, w.Body)
		}
		sched := map[string]any{"title": "Flood", "groupId": group, "scheduledDate": when}
		if w := s.call(http.MethodPost, "/api/organizations/O/scheduled-alerts", tok, sched); w.Code != http.StatusBadRequest {
			t.Errorf("scheduled groupId %q: status = %d, want 400", group, w.Code)
		}
	}

	if n := len(s.alerts.All()); n != 0 {
		t.Fatalf("stored %d alerts, want none", n)
	}
	if n := len(s.publisher.got); n != 0 {
		t.Fatalf("published %d events, want none", n)
	}
	due, _ := s.scheduled.FindDue(context.Background(), when.AddDate(1, 0, 0), 10)
	if len(due) != 0 {
		t.Fatalf("stored %d scheduled alerts, want none", len(due))
	}

	w := s.call(http.MethodPost, "/api/organizations/O/alerts", tok, map[string]any{"title": "Flood", "groupId": " zone-a "})
	if w.Code != http.StatusCreated {
		t.Fatalf("padded valid groupId status = %d, want 201", w.Code)
	}
}
