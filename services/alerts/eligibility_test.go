package alerts

import (
	"context"
	"errors"
	"testing"

	"orgalerts/database/repository/memory"
	"orgalerts/models"
	"orgalerts/services/preferences"

	"go.uber.org/zap/zaptest"
)

func TestEligibilityGroupScoped(t *testing.T) {
	t.Parallel()
	repo := memory.NewFollowerRepo()
	repo.Add("O", "on", map[string]bool{"g1": true})
	repo.Add("O", "off", map[string]bool{"g1": false, "g2": true})
	repo.Add("O", "other-group", map[string]bool{"g2": false})
	repo.Add("O", "fresh", nil)
	repo.Add("O", "init-fails", nil)
	repo.InitErr["init-fails"] = errors.New("write timeout")

	store, _ := preferences.NewDefaultStore(repo)
	f := NewEligibilityFilter(store, zaptest.NewLogger(t), 3)
	alert := &models.Alert{ID: "a", AlertContent: models.AlertContent{OrganizationID: "O", GroupID: "g1"}}

	in := []string{"fresh", "off", "on", "other-group", "init-fails"}
	got := f.Filter(context.Background(), alert, in)
	want := []string{"fresh", "on", "other-group", "init-fails"}
	if len(got) != len(want) {
		t.Fatalf("Filter = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Filter = %v, want %v", got, want)
		}
	}

	if prefs, _ := repo.Snapshot("O", "other-group"); !prefs["g1"] || prefs["g2"] {
		t.Fatalf("other-group prefs = %v, want g1 initialized and g2 untouched", prefs)
	}
	if repo.InitWrites != 2 {
		t.Fatalf("InitWrites = %d, want 2 (fresh, other-group)", repo.InitWrites)
	}

	// A second alert for the same group writes nothing new.
	f.Filter(context.Background(), alert, in)
	if repo.InitWrites != 2 {
		t.Fatalf("InitWrites after rerun = %d, want 2", repo.InitWrites)
	}
}
