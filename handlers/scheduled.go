package handlers

import (
	"net/http"
	"time"

	alertRepo "orgalerts/database/repository/alert"
	"orgalerts/middleware"
	"orgalerts/models"
	"orgalerts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduledAlertHandler serves scheduled alert endpoints.
type ScheduledAlertHandler struct {
	Scheduled alertRepo.ScheduledAlertRepository
	Alerts    alertRepo.AlertRepository
}

func NewScheduledAlertHandler(scheduled alertRepo.ScheduledAlertRepository, alerts alertRepo.AlertRepository) *ScheduledAlertHandler {
	return &ScheduledAlertHandler{Scheduled: scheduled, Alerts: alerts}
}

func validateSchedule(req *models.CreateScheduledAlertRequest) string {
	if req.ScheduledDate.IsZero() {
		return "scheduledDate is required"
	}
	if !req.IsRecurring {
		return ""
	}
	p := req.RecurrencePattern
	if p == nil || !p.Frequency.Valid() {
		return "recurring alerts need a recurrencePattern with frequency daily, weekly, monthly or yearly"
	}
	if p.Interval < 1 {
		p.Interval = 1
	}
	if p.Occurrences < 0 {
		return "occurrences must not be negative"
	}
	if p.EndDate != nil && p.EndDate.Before(req.ScheduledDate) {
		return "endDate is before scheduledDate"
	}
	return ""
}

// CreateScheduledAlertHandler stores an alert that fires at scheduledDate.
func (h *ScheduledAlertHandler) CreateScheduledAlertHandler(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	orgID := c.Param("orgId")

	var req models.CreateScheduledAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", "Invalid request", err.Error())
		return
	}
	if msg := validateSchedule(&req); msg != "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", msg, "")
		return
	}
	if err := validGroupID(req.GroupID); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", err.Error(), "")
		return
	}

	sa := &models.ScheduledAlert{
		ID:            uuid.NewString(),
		AlertContent:  buildContent(c.Request.Context(), h.Alerts, orgID, caller, req.CreateAlertRequest),
		ScheduledDate: req.ScheduledDate.UTC(),
		IsActive:      true,
		IsRecurring:   req.IsRecurring,
	}
	if req.IsRecurring {
		sa.RecurrencePattern = req.RecurrencePattern
	}
	if err := h.Scheduled.Create(c.Request.Context(), sa); err != nil {
		writeStoreError(c, err, "scheduled alert")
		return
	}

	getLogger(c).Info("scheduled alert created",
		zap.String("scheduledAlertId", sa.ID),
		zap.Time("scheduledDate", sa.ScheduledDate),
		zap.Bool("recurring", sa.IsRecurring),
	)
	c.JSON(http.StatusCreated, sa)
}

// DeactivateScheduledAlertHandler stops a scheduled alert from firing again.
func (h *ScheduledAlertHandler) DeactivateScheduledAlertHandler(c *gin.Context) {
	if err := h.Scheduled.Deactivate(c.Request.Context(), c.Param("orgId"), c.Param("id")); err != nil {
		writeStoreError(c, err, "scheduled alert")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "isActive": false, "deactivatedAt": time.Now().UTC()})
}
