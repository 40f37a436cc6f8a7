package handlers

import (
	"orgalerts/utils"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Alerts      *AlertHandler
	Scheduled   *ScheduledAlertHandler
	Preferences *PreferenceHandler
	Callables   *CallableHandler
	Health      *utils.HealthMonitor
}
