package models

import "time"

// Follower links a user to an organization they receive alerts from.
// A nil GroupPreferences map means no preference document exists yet; a missing
// key means the preference for that group is unset.
type Follower struct {
	OrganizationID   string          `bson:"organizationId" json:"organizationId"`
	UserID           string          `bson:"userId" json:"userId"`
	AlertsEnabled    *bool           `bson:"alertsEnabled,omitempty" json:"alertsEnabled,omitempty"`
	GroupPreferences map[string]bool `bson:"groupPreferences,omitempty" json:"groupPreferences,omitempty"`
	FollowedAt       time.Time       `bson:"followedAt" json:"followedAt"`
}

// ReceivesAlerts treats an unset master switch as enabled.
func (f *Follower) ReceivesAlerts() bool {
	return f.AlertsEnabled == nil || *f.AlertsEnabled
}

// LegacyFollower is a row of the flat pre-subcollection follower list.
type LegacyFollower struct {
	OrganizationID   string          `bson:"organizationId"`
	UserID           string          `bson:"userId"`
	GroupPreferences map[string]bool `bson:"groupPreferences,omitempty"`
	FollowedAt       *time.Time      `bson:"followedAt,omitempty"`
}

// MigrationReport summarizes a legacy follower copy.
type MigrationReport struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Existing int `json:"existing"`
	Invalid  int `json:"invalid"`
}

// GroupPreferenceRequest is the body of an explicit preference write.
type GroupPreferenceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
