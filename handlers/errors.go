package handlers

import (
	"errors"
	"net/http"

	"orgalerts/database"
	"orgalerts/services/admin"
	"orgalerts/services/preferences"
	"orgalerts/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var callableStatus = map[string]int{
	admin.CodeUnauthenticated:  http.StatusUnauthorized,
	admin.CodeInvalidArgument:  http.StatusBadRequest,
	admin.CodeNotFound:         http.StatusNotFound,
	admin.CodePermissionDenied: http.StatusForbidden,
	admin.CodeInternal:         http.StatusInternalServerError,
}

// writeCallableError maps a callable error code to its HTTP status.
func writeCallableError(c *gin.Context, err error) {
	ce := admin.AsCallableError(err)
	status, ok := callableStatus[ce.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	utils.JSONError(c, status, ce.Code, ce.Message, "")
}

// writeStoreError maps repository sentinels for the REST endpoints.
func writeStoreError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, admin.CodeNotFound, what+" not found", "")
	case errors.Is(err, database.ErrDuplicate):
		utils.JSONError(c, http.StatusConflict, "already-exists", what+" already exists", "")
	case errors.Is(err, preferences.ErrInvalidGroupID):
		utils.JSONError(c, http.StatusBadRequest, admin.CodeInvalidArgument, err.Error(), "")
	default:
		getLogger(c).Error("store operation failed", zap.String("resource", what), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, admin.CodeInternal, "Failed to process "+what, "")
	}
}
