package followerRepo

import (
	"context"

	"orgalerts/models"
)

// FollowerRepository defines methods for follower and group preference data access.
type FollowerRepository interface {
	// ListFollowerIDs returns the ids of users following orgID with alerts enabled.
	ListFollowerIDs(ctx context.Context, orgID string) ([]string, error)
	// Get retrieves one follower record.
	Get(ctx context.Context, orgID, userID string) (*models.Follower, error)
	// SetGroupPreferenceIfAbsent writes groupPreferences.<groupID> only when unset.
	// It reports whether a write happened.
	SetGroupPreferenceIfAbsent(ctx context.Context, orgID, userID, groupID string, value bool) (bool, error)
	// SetGroupPreference writes an explicit preference value.
	SetGroupPreference(ctx context.Context, orgID, userID, groupID string, value bool) error
	// SetAlertsEnabled flips the follower-level master switch.
	SetAlertsEnabled(ctx context.Context, orgID, userID string, enabled bool) error
	// Follow creates the follower record if it does not exist yet.
	Follow(ctx context.Context, f *models.Follower) error
	// InsertIfAbsent creates the record and reports false when it already existed.
	InsertIfAbsent(ctx context.Context, f *models.Follower) (bool, error)
	// Delete removes the follower record.
	Delete(ctx context.Context, orgID, userID string) error
}

// LegacyFollowerRepository reads the flat follower list kept by older clients.
type LegacyFollowerRepository interface {
	ListAll(ctx context.Context) ([]models.LegacyFollower, error)
	DeleteAll(ctx context.Context) (int64, error)
}
