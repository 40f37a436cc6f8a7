package models

import (
	"strings"
	"time"
)

// Severity grades an alert and drives the push title prefix.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a client-supplied severity. Unknown values map to low.
func ParseSeverity(raw string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AlertContent is the user-authored part shared by live and scheduled alerts.
type AlertContent struct {
	OrganizationID   string   `bson:"organizationId" json:"organizationId"`
	OrganizationName string   `bson:"organizationName" json:"organizationName"`
	GroupID          string   `bson:"groupId,omitempty" json:"groupId,omitempty"`
	GroupName        string   `bson:"groupName,omitempty" json:"groupName,omitempty"`
	Type             string   `bson:"type" json:"type"`
	Severity         Severity `bson:"severity" json:"severity"`
	Title            string   `bson:"title" json:"title"`
	Description      string   `bson:"description" json:"description"`
	PostedBy         string   `bson:"postedBy" json:"postedBy"`
	PostedByUserID   string   `bson:"postedByUserId" json:"postedByUserId"`
}

// Alert is a live alert stored under an organization.
type Alert struct {
	ID           string `bson:"id" json:"id"`
	AlertContent `bson:",inline"`

	IsActive         bool      `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	ScheduledAlertID string    `bson:"scheduledAlertId,omitempty" json:"scheduledAlertId,omitempty"`

	NotificationsSent    bool       `bson:"notificationsSent" json:"notificationsSent"`
	NotificationCount    int        `bson:"notificationCount" json:"notificationCount"`
	NotificationFailures int        `bson:"notificationFailures" json:"notificationFailures"`
	NotificationSkipped  int        `bson:"notificationSkipped,omitempty" json:"notificationSkipped,omitempty"`
	NotificationSentAt   *time.Time `bson:"notificationSentAt,omitempty" json:"notificationSentAt,omitempty"`
	NotificationError    string     `bson:"notificationError,omitempty" json:"notificationError,omitempty"`
	NotificationErrorAt  *time.Time `bson:"notificationErrorAt,omitempty" json:"notificationErrorAt,omitempty"`
}

// HasGroup reports whether the alert targets a single group.
func (a *Alert) HasGroup() bool {
	return strings.TrimSpace(a.GroupID) != ""
}

// NotificationStatus is the single write the status writer applies to an alert.
type NotificationStatus struct {
	Sent     bool
	Count    int
	Failures int
	Skipped  int
	Error    string
	At       time.Time
}

// CreateAlertRequest is the body accepted when posting an alert.
type CreateAlertRequest struct {
	OrganizationName string `json:"organizationName"`
	GroupID          string `json:"groupId"`
	GroupName        string `json:"groupName"`
	Type             string `json:"type"`
	Severity         string `json:"severity"`
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	PostedBy         string `json:"postedBy"`
}
