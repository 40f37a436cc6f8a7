// Package admin implements the authenticated callables and maintenance operations.
package admin

import (
	"context"
	"fmt"

	followerRepo "orgalerts/database/repository/follower"
	userRepo "orgalerts/database/repository/user"
	"orgalerts/models"
	"orgalerts/services/notification"
	"orgalerts/utils"

	"go.uber.org/zap"
)

type AdminService interface {
	// TestNotification sends a single push to req.UserID.
	TestNotification(ctx context.Context, caller utils.Identity, req models.TestNotificationRequest) (*models.TestNotificationResult, error)
	// RegisterDeliveryToken registers, removes or checks the caller's own token.
	RegisterDeliveryToken(ctx context.Context, caller utils.Identity, req models.DeliveryTokenRequest) (*models.DeliveryTokenResult, error)
	CleanupInvalidTokens(ctx context.Context, caller utils.Identity) (*models.TokenCleanupReport, error)
	DiagnoseConfiguration(ctx context.Context, caller utils.Identity) (*Diagnostics, error)
	// MigrateFollowers copies the legacy follower list into per-organization
	// follower records, keeping any record that already exists.
	MigrateFollowers(ctx context.Context, caller utils.Identity) (*models.MigrationReport, error)
	CleanupLegacyFollowers(ctx context.Context, caller utils.Identity) (*models.LegacyCleanupReport, error)
}

// Settings are the configuration values the diagnostics report exposes.
type Settings struct {
	Env                 string
	FirebaseProjectID   string
	FirebaseConfigured  bool
	MinTokenLength      int
	FanoutConcurrency   int
	DispatchConcurrency int
}

// DefaultAdminService is the production implementation.
type DefaultAdminService struct {
	Users     userRepo.UserRepository
	Followers followerRepo.FollowerRepository
	Legacy    followerRepo.LegacyFollowerRepository
	Notifier  notification.NotificationService
	Health    *utils.HealthMonitor
	Settings  Settings
	Logger    *zap.Logger
}

func NewDefaultAdminService(
	users userRepo.UserRepository,
	followers followerRepo.FollowerRepository,
	legacy followerRepo.LegacyFollowerRepository,
	notifier notification.NotificationService,
	health *utils.HealthMonitor,
	settings Settings,
	logger *zap.Logger,
) (*DefaultAdminService, error) {
	if users == nil || followers == nil || legacy == nil || notifier == nil {
		return nil, fmt.Errorf("admin service initialization error: missing dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.MinTokenLength <= 0 {
		settings.MinTokenLength = utils.DefaultMinTokenLength
	}
	return &DefaultAdminService{
		Users:     users,
		Followers: followers,
		Legacy:    legacy,
		Notifier:  notifier,
		Health:    health,
		Settings:  settings,
		Logger:    logger,
	}, nil
}

func requireCaller(caller utils.Identity) error {
	if caller.UserID == "" {
		return newError(CodeUnauthenticated, "authentication required")
	}
	return nil
}

func requireAdmin(caller utils.Identity) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return newError(CodePermissionDenied, "admin role required")
	}
	return nil
}
