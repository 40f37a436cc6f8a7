package handlers

import (
	"net/http"

	"orgalerts/middleware"
	"orgalerts/models"
	"orgalerts/services/preferences"
	"orgalerts/utils"

	"github.com/gin-gonic/gin"
)

// PreferenceHandler serves follow and group preference endpoints for the caller.
type PreferenceHandler struct {
	Store preferences.Store
}

func NewPreferenceHandler(store preferences.Store) *PreferenceHandler {
	return &PreferenceHandler{Store: store}
}

func (h *PreferenceHandler) FollowHandler(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	if err := h.Store.Follow(c.Request.Context(), c.Param("orgId"), caller.UserID); err != nil {
		writeStoreError(c, err, "follower")
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizationId": c.Param("orgId"), "following": true})
}

func (h *PreferenceHandler) UnfollowHandler(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	if err := h.Store.Unfollow(c.Request.Context(), c.Param("orgId"), caller.UserID); err != nil {
		writeStoreError(c, err, "follower")
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizationId": c.Param("orgId"), "following": false})
}

// GetPreferencesHandler returns the caller's follower record. Groups missing
// from groupPreferences are treated as enabled.
func (h *PreferenceHandler) GetPreferencesHandler(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	f, err := h.Store.GetFollower(c.Request.Context(), c.Param("orgId"), caller.UserID)
	if err != nil {
		writeStoreError(c, err, "follower")
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *PreferenceHandler) SetGroupPreferenceHandler(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	var req models.GroupPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", "enabled is required", err.Error())
		return
	}
	groupID := c.Param("groupId")
	if err := h.Store.SetGroup(c.Request.Context(), c.Param("orgId"), caller.UserID, groupID, *req.Enabled); err != nil {
		writeStoreError(c, err, "follower")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groupId": groupID, "enabled": *req.Enabled})
}

func (h *PreferenceHandler) ToggleGroupPreferenceHandler(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	groupID := c.Param("groupId")
	enabled, err := h.Store.Toggle(c.Request.Context(), c.Param("orgId"), caller.UserID, groupID)
	if err != nil {
		writeStoreError(c, err, "follower")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groupId": groupID, "enabled": enabled})
}

// SetAlertsEnabledHandler flips the caller's organization-wide switch.
func (h *PreferenceHandler) SetAlertsEnabledHandler(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	var req models.GroupPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid-argument", "enabled is required", err.Error())
		return
	}
	if err := h.Store.SetAlertsEnabled(c.Request.Context(), c.Param("orgId"), caller.UserID, *req.Enabled); err != nil {
		writeStoreError(c, err, "follower")
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizationId": c.Param("orgId"), "alertsEnabled": *req.Enabled})
}
