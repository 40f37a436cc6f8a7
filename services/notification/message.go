package notification

import (
	"strings"

	"orgalerts/models"

	"firebase.google.com/go/v4/messaging"
)

// titlePrefix maps a severity to the marker shown before the alert title.
func titlePrefix(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return "🚨 CRITICAL:"
	case models.SeverityHigh:
		return "⚠️ HIGH PRIORITY:"
	case models.SeverityMedium:
		return "📢"
	default:
		return "ℹ️"
	}
}

// BuildTitle renders "<prefix> [<group>] <title>".
func BuildTitle(alert *models.Alert) string {
	var b strings.Builder
	b.WriteString(titlePrefix(alert.Severity))
	b.WriteByte(' ')
	if alert.HasGroup() {
		name := strings.TrimSpace(alert.GroupName)
		if name == "" {
			name = alert.GroupID
		}
		b.WriteString("[")
		b.WriteString(name)
		b.WriteString("] ")
	}
	b.WriteString(strings.TrimSpace(alert.Title))
	return b.String()
}

// BuildData is the data block carried by every alert push.
func BuildData(alert *models.Alert) map[string]string {
	return map[string]string{
		"alertId":          alert.ID,
		"organizationId":   alert.OrganizationID,
		"organizationName": alert.OrganizationName,
		"alertType":        alert.Type,
		"severity":         string(alert.Severity),
		"groupId":          alert.GroupID,
		"groupName":        alert.GroupName,
	}
}

// BuildMessage assembles the push for a single token.
func BuildMessage(alert *models.Alert, title, token string) *messaging.Message {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  alert.Description,
		},
		Data: BuildData(alert),
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if alert.Severity == models.SeverityCritical || alert.Severity == models.SeverityHigh {
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		}
		msg.APNS.Headers["apns-priority"] = "10"
	}
	return msg
}
