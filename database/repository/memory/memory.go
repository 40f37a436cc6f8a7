// Package memory holds mutex-guarded in-memory repositories with error injection,
// used by package tests in place of MongoDB.
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

func boolPtr(v bool) *bool { return &v }

// FollowerRepo implements followerRepo.FollowerRepository.
type FollowerRepo struct {
	mu        sync.Mutex
	followers map[string]*models.Follower

	// GetErr forces Get to fail for the given user ids.
	GetErr map[string]error
	// InitErr forces SetGroupPreferenceIfAbsent to fail for the given user ids.
	InitErr map[string]error
	// ListErr forces ListFollowerIDs to fail.
	ListErr error

	InitWrites int
}

func NewFollowerRepo() *FollowerRepo {
	return &FollowerRepo{
		followers: map[string]*models.Follower{},
		GetErr:    map[string]error{},
		InitErr:   map[string]error{},
	}
}

func followerKey(orgID, userID string) string { return orgID + "/" + userID }

// Add seeds a follower. A nil prefs map means no preference document.
func (r *FollowerRepo) Add(orgID, userID string, prefs map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var copied map[string]bool
	if prefs != nil {
		copied = make(map[string]bool, len(prefs))
		for k, v := range prefs {
			copied[k] = v
		}
	}
	r.followers[followerKey(orgID, userID)] = &models.Follower{
		OrganizationID:   orgID,
		UserID:           userID,
		GroupPreferences: copied,
		FollowedAt:       time.Now(),
	}
}

// Snapshot returns a copy of a follower's preferences.
func (r *FollowerRepo) Snapshot(orgID, userID string) (map[string]bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.followers[followerKey(orgID, userID)]
	if !ok || f.GroupPreferences == nil {
		return nil, false
	}
	out := make(map[string]bool, len(f.GroupPreferences))
	for k, v := range f.GroupPreferences {
		out[k] = v
	}
	return out, true
}

func (r *FollowerRepo) ListFollowerIDs(ctx context.Context, orgID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var ids []string
	for _, f := range r.followers {
		if f.OrganizationID == orgID && f.ReceivesAlerts() {
			ids = append(ids, f.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *FollowerRepo) Get(ctx context.Context, orgID, userID string) (*models.Follower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.GetErr[userID]; err != nil {
		return nil, err
	}
	f, ok := r.followers[followerKey(orgID, userID)]
	if !ok {
		return nil, fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
	}
	cp := *f
	if f.GroupPreferences != nil {
		cp.GroupPreferences = make(map[string]bool, len(f.GroupPreferences))
		for k, v := range f.GroupPreferences {
			cp.GroupPreferences[k] = v
		}
	}
	return &cp, nil
}

func (r *FollowerRepo) SetGroupPreferenceIfAbsent(ctx context.Context, orgID, userID, groupID string, value bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.InitErr[userID]; err != nil {
		return false, err
	}
	f, ok := r.followers[followerKey(orgID, userID)]
	if !ok {
		return false, nil
	}
	if _, exists := f.GroupPreferences[groupID]; exists {
		return false, nil
	}
	if f.GroupPreferences == nil {
		f.GroupPreferences = map[string]bool{}
	}
	f.GroupPreferences[groupID] = value
	r.InitWrites++
	return true, nil
}

func (r *FollowerRepo) SetGroupPreference(ctx context.Context, orgID, userID, groupID string, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.followers[followerKey(orgID, userID)]
	if !ok {
		return fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
	}
	if f.GroupPreferences == nil {
		f.GroupPreferences = map[string]bool{}
	}
	f.GroupPreferences[groupID] = value
	return nil
}

func (r *FollowerRepo) SetAlertsEnabled(ctx context.Context, orgID, userID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.followers[followerKey(orgID, userID)]
	if !ok {
		return fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
	}
	f.AlertsEnabled = boolPtr(enabled)
	return nil
}

func (r *FollowerRepo) Follow(ctx context.Context, f *models.Follower) error {
	_, err := r.InsertIfAbsent(ctx, f)
	return err
}

func (r *FollowerRepo) InsertIfAbsent(ctx context.Context, f *models.Follower) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := followerKey(f.OrganizationID, f.UserID)
	if _, ok := r.followers[k]; ok {
		return false, nil
	}
	cp := *f
	if cp.FollowedAt.IsZero() {
		cp.FollowedAt = time.Now()
	}
	r.followers[k] = &cp
	return true, nil
}

func (r *FollowerRepo) Delete(ctx context.Context, orgID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := followerKey(orgID, userID)
	if _, ok := r.followers[k]; !ok {
		return fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
	}
	delete(r.followers, k)
	return nil
}

// LegacyRepo implements followerRepo.LegacyFollowerRepository.
type LegacyRepo struct {
	mu   sync.Mutex
	Rows []models.LegacyFollower
}

func (r *LegacyRepo) ListAll(ctx context.Context) ([]models.LegacyFollower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.LegacyFollower(nil), r.Rows...), nil
}

func (r *LegacyRepo) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.Rows))
	r.Rows = nil
	return n, nil
}
