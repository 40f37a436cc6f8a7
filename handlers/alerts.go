package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	alertRepo "orgalerts/database/repository/alert"
	"orgalerts/middleware"
	"orgalerts/models"
	"orgalerts/services/alerts"
	"orgalerts/services/preferences"
	"orgalerts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertHandler serves live alert endpoints.
type AlertHandler struct {
	Alerts    alertRepo.AlertRepository
	Publisher alerts.EventPublisher
	Service   alerts.AlertService
}

func NewAlertHandler(repo alertRepo.AlertRepository, publisher alerts.EventPublisher, svc alerts.AlertService) *AlertHandler {
	return &AlertHandler{Alerts: repo, Publisher: publisher, Service: svc}
}

// validGroupID accepts an empty group (all members) or one preferences can store.
func validGroupID(raw string) error {
	g := strings.TrimSpace(raw)
	if g == "" {
		return nil
	}
	return preferences.ValidateGroupID(g)
}

// buildContent normalizes the authored part of an alert request.
func buildContent(ctx context.Context, repo alertRepo.AlertRepository, orgID string, caller utils.Identity, req models.CreateAlertRequest) models.AlertContent {
	name := strings.TrimSpace(req.OrganizationName)
	if name == "" {
		if n, err := repo.GetOrganizationName(ctx, orgID); err == nil {
			name = n
		}
	}
	postedBy := strings.TrimSpace(req.PostedBy)
	if postedBy == "" {
		postedBy = caller.UserID
	}
	return models.AlertContent{
		OrganizationID:   orgID,
		OrganizationName: name,
		GroupID:          strings.TrimSpace(req.GroupID),
		GroupName:        strings.TrimSpace(req.GroupName),
		Type:             strings.TrimSpace(req.Type),
		Severity:         models.ParseSeverity(req.Severity),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		PostedBy:         postedBy,
		PostedByUserID:   caller.UserID,
	}
}

// CreateAlertHandler stores a new alert and emits its alert-created event.
func (h *AlertHandler) CreateAlertHandler(c *gin.Context) {
	logger := getLogger(c)
	caller := middleware.GetIdentity(c)
	orgID := c.Param("orgId")

	var req models.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", "Invalid request", err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", "title is required", "")
		return
	}
	if err := validGroupID(req.GroupID); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", err.Error(), "")
		return
	}

	alert := &models.Alert{
		ID:           uuid.NewString(),
		AlertContent: buildContent(c.Request.Context(), h.Alerts, orgID, caller, req),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := h.Alerts.Create(c.Request.Context(), alert); err != nil {
		writeStoreError(c, err, "alert")
		return
	}

	payload := models.AlertCreatedPayload{OrganizationID: orgID, AlertID: alert.ID}
	if err := h.Publisher.PublishAlertCreated(c.Request.Context(), payload); err != nil {
		logger.Error("alert event not queued, dispatching inline", zap.String("alertId", alert.ID), zap.Error(err))
		ctx := context.WithoutCancel(c.Request.Context())
		go func(a *models.Alert) {
			if _, err := h.Service.HandleAlertCreated(ctx, a); err != nil {
				zap.L().Error("inline alert dispatch failed", zap.String("alertId", a.ID), zap.Error(err))
			}
		}(alert)
	}

	logger.Info("alert created", zap.String("alertId", alert.ID), zap.String("organizationId", orgID))
	c.JSON(http.StatusCreated, alert)
}

// GetAlertHandler returns an alert including its notification status.
func (h *AlertHandler) GetAlertHandler(c *gin.Context) {
	alert, err := h.Alerts.GetByID(c.Request.Context(), c.Param("orgId"), c.Param("alertId"))
	if err != nil {
		writeStoreError(c, err, "alert")
		return
	}
	c.JSON(http.StatusOK, alert)
}

// RedispatchHandler runs the fan-out again for an existing alert.
func (h *AlertHandler) RedispatchHandler(c *gin.Context) {
	logger := getLogger(c)
	alert, err := h.Alerts.GetByID(c.Request.Context(), c.Param("orgId"), c.Param("alertId"))
	if err != nil {
		writeStoreError(c, err, "alert")
		return
	}

	out, err := h.Service.Redispatch(c.Request.Context(), alert)
	if err != nil {
		logger.Error("manual redispatch failed", zap.String("alertId", alert.ID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Dispatch failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alertId":   out.AlertID,
		"followers": out.Followers,
		"eligible":  out.Eligible,
		"tokens":    out.Tokens,
		"success":   out.Result.Success,
		"failure":   out.Result.Failure,
		"skipped":   out.Result.Skipped,
	})
}
