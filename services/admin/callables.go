package admin

import (
	"context"
	"errors"
	"strings"

	"orgalerts/database"
	"orgalerts/models"
	"orgalerts/services/notification"
	"orgalerts/utils"

	"go.uber.org/zap"
)

func (s *DefaultAdminService) TestNotification(ctx context.Context, caller utils.Identity, req models.TestNotificationRequest) (*models.TestNotificationResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		req.UserID = caller.UserID
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, newError(CodeInvalidArgument, "title and body are required")
	}
	if req.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, newError(CodePermissionDenied, "cannot send a test notification to another user")
	}

	data := map[string]string{"type": "test"}
	id, err := s.Notifier.SendUserPushNotification(ctx, req.UserID, req.Title, req.Body, data)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, newError(CodeNotFound, "user %s not found", req.UserID)
		case errors.Is(err, notification.ErrNoToken):
			return nil, newError(CodeNotFound, "user %s has no valid delivery token", req.UserID)
		}
		s.Logger.Error("test notification failed", zap.String("userId", req.UserID), zap.Error(err))
		return nil, newError(CodeInternal, "failed to send test notification")
	}
	return &models.TestNotificationResult{Success: true, MessageID: id}, nil
}

func (s *DefaultAdminService) RegisterDeliveryToken(ctx context.Context, caller utils.Identity, req models.DeliveryTokenRequest) (*models.DeliveryTokenResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action == "" {
		action = models.TokenActionRegister
	}
	token := utils.NormalizeToken(req.Token)
	res := &models.DeliveryTokenResult{Action: action, TokenLength: utils.TokenLength(token)}

	switch action {
	case models.TokenActionRegister:
		if !utils.IsPlausibleToken(token, s.Settings.MinTokenLength) {
			return nil, newError(CodeInvalidArgument, "token must be at least %d characters", s.Settings.MinTokenLength)
		}
		if err := s.Users.SetToken(ctx, caller.UserID, token, strings.TrimSpace(req.Platform)); err != nil {
			s.Logger.Error("token registration failed", zap.String("userId", caller.UserID), zap.Error(err))
			return nil, newError(CodeInternal, "failed to store token")
		}
		res.Valid = true
		res.Registered = true

	case models.TokenActionUnregister:
		if err := s.Users.ClearToken(ctx, caller.UserID); err != nil && !errors.Is(err, database.ErrNotFound) {
			s.Logger.Error("token removal failed", zap.String("userId", caller.UserID), zap.Error(err))
			return nil, newError(CodeInternal, "failed to remove token")
		}

	case models.TokenActionValidate:
		u, err := s.Users.GetByID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return res, nil
			}
			return nil, newError(CodeInternal, "failed to read user")
		}
		res.Registered = u.FCMToken != ""
		res.Valid = utils.IsPlausibleToken(u.FCMToken, s.Settings.MinTokenLength)
		res.Matches = token != "" && token == utils.NormalizeToken(u.FCMToken)
		res.TokenLength = utils.TokenLength(u.FCMToken)

	default:
		return nil, newError(CodeInvalidArgument, "unknown action %q", req.Action)
	}
	return res, nil
}
