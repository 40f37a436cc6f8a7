package models

// AlertCreatedPayload is the queue message emitted for every new alert document.
type AlertCreatedPayload struct {
	OrganizationID string `json:"organizationId"`
	AlertID        string `json:"alertId"`
}

// TestNotificationRequest is the body of the testNotification callable.
type TestNotificationRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// TestNotificationResult reports the FCM message id of a test push.
type TestNotificationResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}
