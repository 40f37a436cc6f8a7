package models

import "time"

// Frequency is the unit a recurring scheduled alert advances by.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurrencePattern bounds a recurring alert by end date, occurrence count or neither.
type RecurrencePattern struct {
	Frequency   Frequency  `bson:"frequency" json:"frequency"`
	Interval    int        `bson:"interval" json:"interval"`
	EndDate     *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Occurrences int        `bson:"occurrences,omitempty" json:"occurrences,omitempty"`
}

// ScheduledAlert materializes into an Alert once scheduledDate has passed.
type ScheduledAlert struct {
	ID           string `bson:"id" json:"id"`
	AlertContent `bson:",inline"`

	ScheduledDate     time.Time          `bson:"scheduledDate" json:"scheduledDate"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	IsRecurring       bool               `bson:"isRecurring" json:"isRecurring"`
	RecurrencePattern *RecurrencePattern `bson:"recurrencePattern,omitempty" json:"recurrencePattern,omitempty"`

	ExecutionCount  int        `bson:"executionCount" json:"executionCount"`
	Executed        bool       `bson:"executed" json:"executed"`
	ExecutedAt      *time.Time `bson:"executedAt,omitempty" json:"executedAt,omitempty"`
	LastAlertID     string     `bson:"lastAlertId,omitempty" json:"lastAlertId,omitempty"`
	RecurrenceEnded bool       `bson:"recurrenceEnded" json:"recurrenceEnded"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ScheduledTransition is the state change applied after a scheduled alert fires.
type ScheduledTransition struct {
	// ExpectedDate guards the update so concurrent scanners cannot both advance a record.
	ExpectedDate    time.Time
	IsActive        bool
	Executed        bool
	RecurrenceEnded bool
	NextDate        *time.Time
	ExecutionCount  int
	LastAlertID     string
	At              time.Time
}

// CreateScheduledAlertRequest is the body accepted when scheduling an alert.
type CreateScheduledAlertRequest struct {
	CreateAlertRequest
	ScheduledDate     time.Time          `json:"scheduledDate" binding:"required"`
	IsRecurring       bool               `json:"isRecurring"`
	RecurrencePattern *RecurrencePattern `json:"recurrencePattern"`
}
