package handlers

import (
	"net/http"

	"orgalerts/middleware"
	"orgalerts/models"
	"orgalerts/services/admin"

	"github.com/gin-gonic/gin"
)

// CallableHandler exposes the admin service as JSON callables.
type CallableHandler struct {
	Admin admin.AdminService
}

func NewCallableHandler(svc admin.AdminService) *CallableHandler {
	return &CallableHandler{Admin: svc}
}

func (h *CallableHandler) TestNotificationHandler(c *gin.Context) {
	var req models.TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCallableError(c, &admin.CallableError{Code: admin.CodeInvalidArgument, Message: err.Error()})
		return
	}
	res, err := h.Admin.TestNotification(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		writeCallableError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CallableHandler) RegisterDeliveryTokenHandler(c *gin.Context) {
	var req models.DeliveryTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCallableError(c, &admin.CallableError{Code: admin.CodeInvalidArgument, Message: err.Error()})
		return
	}
	res, err := h.Admin.RegisterDeliveryToken(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		writeCallableError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CallableHandler) CleanupInvalidTokensHandler(c *gin.Context) {
	res, err := h.Admin.CleanupInvalidTokens(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeCallableError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CallableHandler) DiagnoseConfigurationHandler(c *gin.Context) {
	res, err := h.Admin.DiagnoseConfiguration(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeCallableError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CallableHandler) MigrateFollowersHandler(c *gin.Context) {
	res, err := h.Admin.MigrateFollowers(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeCallableError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CallableHandler) CleanupLegacyFollowersHandler(c *gin.Context) {
	res, err := h.Admin.CleanupLegacyFollowers(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeCallableError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
