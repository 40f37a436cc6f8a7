// models/user.go
package models

import "time"

// User is the delivery-token holder looked up during fan-out.
type User struct {
	ID             string     `bson:"id" json:"id"`
	Role           string     `bson:"role,omitempty" json:"role,omitempty"`
	FCMToken       string     `bson:"fcmToken,omitempty" json:"-"`
	Platform       string     `bson:"platform,omitempty" json:"platform,omitempty"`
	AlertsEnabled  *bool      `bson:"alertsEnabled,omitempty" json:"alertsEnabled,omitempty"`
	TokenUpdatedAt *time.Time `bson:"tokenUpdatedAt,omitempty" json:"tokenUpdatedAt,omitempty"`
}

// ReceivesAlerts treats an unset user-level switch as enabled.
func (u *User) ReceivesAlerts() bool {
	return u.AlertsEnabled == nil || *u.AlertsEnabled
}
