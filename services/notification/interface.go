package notification

import (
	"context"
	"errors"
	"fmt"

	userRepo "orgalerts/database/repository/user"
	"orgalerts/models"
	"orgalerts/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// ErrNoToken is returned when a user has no usable delivery token.
var ErrNoToken = errors.New("user has no valid FCM token")

// Sender delivers one FCM message. *messaging.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationService defines methods for sending FCM pushes.
type NotificationService interface {
	// Dispatch sends one push per token for alert and aggregates the outcome.
	Dispatch(ctx context.Context, alert *models.Alert, tokens []string) Result
	// SendUserPushNotification looks up a user's token and sends a single push.
	SendUserPushNotification(ctx context.Context, userID, title, body string, data map[string]string) (string, error)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	sender         Sender
	users          userRepo.UserRepository
	logger         *zap.Logger
	concurrency    int
	minTokenLength int
}

func NewDefaultNotificationService(
	sender Sender,
	users userRepo.UserRepository,
	logger *zap.Logger,
	concurrency int,
	minTokenLength int,
) (*DefaultNotificationService, error) {
	if sender == nil || users == nil {
		return nil, fmt.Errorf("notification service initialization error: sender or user repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if minTokenLength <= 0 {
		minTokenLength = utils.DefaultMinTokenLength
	}
	return &DefaultNotificationService{
		sender:         sender,
		users:          users,
		logger:         logger,
		concurrency:    concurrency,
		minTokenLength: minTokenLength,
	}, nil
}

// SendUserPushNotification looks up a user's FCM token and sends a push.
func (s *DefaultNotificationService) SendUserPushNotification(
	ctx context.Context,
	userID, title, body string,
	data map[string]string,
) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("SendUserPushNotification: could not find user %s: %w", userID, err)
	}
	if !utils.IsPlausibleToken(u.FCMToken, s.minTokenLength) {
		return "", fmt.Errorf("SendUserPushNotification: user %s: %w", userID, ErrNoToken)
	}

	msg := &messaging.Message{
		Token: utils.NormalizeToken(u.FCMToken),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	response, err := s.sender.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("SendUserPushNotification: failed to send FCM message: %w", err)
	}

	s.logger.Info("test notification sent", zap.String("userId", userID), zap.String("messageId", response))
	return response, nil
}

// ErrNotConfigured is returned by the sender used when FCM could not be initialized.
var ErrNotConfigured = errors.New("firebase messaging is not configured")

type unconfiguredSender struct{}

func (unconfiguredSender) Send(context.Context, *messaging.Message) (string, error) {
	return "", ErrNotConfigured
}

// NewUnconfiguredSender returns a Sender that fails every send.
func NewUnconfiguredSender() Sender {
	return unconfiguredSender{}
}
