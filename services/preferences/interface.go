// Package preferences is the single read/write path for follower group preferences.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"orgalerts/database"
	followerRepo "orgalerts/database/repository/follower"
	"orgalerts/models"
)

// ErrInvalidGroupID rejects group ids that cannot be stored as a map key.
var ErrInvalidGroupID = errors.New("invalid group id")

// Store reads and writes per-user, per-organization, per-group preferences.
type Store interface {
	// Get returns the follower's group preferences. found is false when the
	// follower has no preference map yet (or no follower record at all).
	Get(ctx context.Context, orgID, userID string) (prefs map[string]bool, found bool, err error)
	// InitGroup sets groupID to true only when no value exists.
	InitGroup(ctx context.Context, orgID, userID, groupID string) (bool, error)
	SetGroup(ctx context.Context, orgID, userID, groupID string, enabled bool) error
	// Toggle flips the effective value of groupID (unset counts as enabled).
	Toggle(ctx context.Context, orgID, userID, groupID string) (bool, error)
	SetAlertsEnabled(ctx context.Context, orgID, userID string, enabled bool) error
	Follow(ctx context.Context, orgID, userID string) error
	Unfollow(ctx context.Context, orgID, userID string) error
	GetFollower(ctx context.Context, orgID, userID string) (*models.Follower, error)
}

// DefaultStore is the production implementation backed by the follower repository.
type DefaultStore struct {
	Repo followerRepo.FollowerRepository
}

func NewDefaultStore(repo followerRepo.FollowerRepository) (*DefaultStore, error) {
	if repo == nil {
		return nil, fmt.Errorf("preference store initialization error: follower repository is nil")
	}
	return &DefaultStore{Repo: repo}, nil
}

// ValidateGroupID rejects ids that would be interpreted as a nested or operator field path.
func ValidateGroupID(groupID string) error {
	g := strings.TrimSpace(groupID)
	if g == "" || g != groupID || strings.ContainsAny(g, ".") || strings.HasPrefix(g, "$") {
		return fmt.Errorf("%w: %q", ErrInvalidGroupID, groupID)
	}
	return nil
}

func (s *DefaultStore) Get(ctx context.Context, orgID, userID string) (map[string]bool, bool, error) {
	f, err := s.Repo.Get(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if f.GroupPreferences == nil {
		return nil, false, nil
	}
	return f.GroupPreferences, true, nil
}

func (s *DefaultStore) InitGroup(ctx context.Context, orgID, userID, groupID string) (bool, error) {
	if err := ValidateGroupID(groupID); err != nil {
		return false, err
	}
	return s.Repo.SetGroupPreferenceIfAbsent(ctx, orgID, userID, groupID, true)
}

func (s *DefaultStore) SetGroup(ctx context.Context, orgID, userID, groupID string, enabled bool) error {
	if err := ValidateGroupID(groupID); err != nil {
		return err
	}
	return s.Repo.SetGroupPreference(ctx, orgID, userID, groupID, enabled)
}

func (s *DefaultStore) Toggle(ctx context.Context, orgID, userID, groupID string) (bool, error) {
	if err := ValidateGroupID(groupID); err != nil {
		return false, err
	}
	f, err := s.Repo.Get(ctx, orgID, userID)
	if err != nil {
		return false, err
	}
	current, ok := f.GroupPreferences[groupID]
	if !ok {
		current = true
	}
	next := !current
	if err := s.Repo.SetGroupPreference(ctx, orgID, userID, groupID, next); err != nil {
		return false, err
	}
	return next, nil
}

func (s *DefaultStore) SetAlertsEnabled(ctx context.Context, orgID, userID string, enabled bool) error {
	return s.Repo.SetAlertsEnabled(ctx, orgID, userID, enabled)
}

func (s *DefaultStore) Follow(ctx context.Context, orgID, userID string) error {
	return s.Repo.Follow(ctx, &models.Follower{OrganizationID: orgID, UserID: userID})
}

func (s *DefaultStore) Unfollow(ctx context.Context, orgID, userID string) error {
	return s.Repo.Delete(ctx, orgID, userID)
}

func (s *DefaultStore) GetFollower(ctx context.Context, orgID, userID string) (*models.Follower, error) {
	return s.Repo.Get(ctx, orgID, userID)
}
