package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orgalerts/models"
	"orgalerts/utils"

	"go.uber.org/zap"
)

// Diagnostics reports whether push delivery is configured and reachable.
type Diagnostics struct {
	Env                 string              `json:"env"`
	FirebaseConfigured  bool                `json:"firebaseConfigured"`
	FirebaseProjectID   string              `json:"firebaseProjectId,omitempty"`
	MinTokenLength      int                 `json:"minTokenLength"`
	FanoutConcurrency   int                 `json:"fanoutConcurrency"`
	DispatchConcurrency int                 `json:"dispatchConcurrency"`
	UsersWithTokens     int64               `json:"usersWithTokens"`
	Health              *utils.HealthStatus `json:"health,omitempty"`
	Problems            []string            `json:"problems"`
}

func (s *DefaultAdminService) CleanupInvalidTokens(ctx context.Context, caller utils.Identity) (*models.TokenCleanupReport, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	cleared, err := s.Users.ClearShortTokens(ctx, s.Settings.MinTokenLength)
	if err != nil {
		s.Logger.Error("token cleanup failed", zap.Error(err))
		return nil, newError(CodeInternal, "token cleanup failed")
	}
	remaining, err := s.Users.CountWithTokens(ctx)
	if err != nil {
		s.Logger.Warn("token count failed", zap.Error(err))
	}
	s.Logger.Info("invalid tokens cleared", zap.Int64("cleared", cleared), zap.Int64("remaining", remaining))
	return &models.TokenCleanupReport{Cleared: cleared, Remaining: remaining, MinTokenLength: s.Settings.MinTokenLength}, nil
}

func (s *DefaultAdminService) DiagnoseConfiguration(ctx context.Context, caller utils.Identity) (*Diagnostics, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	d := &Diagnostics{
		Env:                 s.Settings.Env,
		FirebaseConfigured:  s.Settings.FirebaseConfigured,
		FirebaseProjectID:   s.Settings.FirebaseProjectID,
		MinTokenLength:      s.Settings.MinTokenLength,
		FanoutConcurrency:   s.Settings.FanoutConcurrency,
		DispatchConcurrency: s.Settings.DispatchConcurrency,
		Problems:            []string{},
	}
	if !d.FirebaseConfigured {
		d.Problems = append(d.Problems, "firebase messaging client is not configured")
	}

	n, err := s.Users.CountWithTokens(ctx)
	if err != nil {
		d.Problems = append(d.Problems, "user store unreachable: "+err.Error())
	} else {
		d.UsersWithTokens = n
		if n == 0 {
			d.Problems = append(d.Problems, "no user has a delivery token")
		}
	}

	if s.Health != nil {
		st := s.Health.Check(ctx)
		d.Health = &st
		if !st.Mongo {
			d.Problems = append(d.Problems, "mongo ping failed")
		}
		for i, ok := range st.Redis {
			if !ok {
				d.Problems = append(d.Problems, fmt.Sprintf("redis ping failed for client %d", i))
			}
		}
	}
	return d, nil
}

func (s *DefaultAdminService) MigrateFollowers(ctx context.Context, caller utils.Identity) (*models.MigrationReport, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	rows, err := s.Legacy.ListAll(ctx)
	if err != nil {
		s.Logger.Error("legacy follower read failed", zap.Error(err))
		return nil, newError(CodeInternal, "failed to read legacy followers")
	}

	report := &models.MigrationReport{Scanned: len(rows)}
	for _, row := range rows {
		orgID, userID := strings.TrimSpace(row.OrganizationID), strings.TrimSpace(row.UserID)
		if orgID == "" || userID == "" {
			report.Invalid++
			continue
		}
		f := &models.Follower{
			OrganizationID:   orgID,
			UserID:           userID,
			GroupPreferences: row.GroupPreferences,
			FollowedAt:       time.Now(),
		}
		if row.FollowedAt != nil {
			f.FollowedAt = *row.FollowedAt
		}
		inserted, err := s.Followers.InsertIfAbsent(ctx, f)
		if err != nil {
			s.Logger.Error("follower migration failed",
				zap.String("organizationId", orgID),
				zap.String("userId", userID),
				zap.Error(err),
			)
			return report, newError(CodeInternal, "migration stopped after %d records", report.Migrated+report.Existing)
		}
		if inserted {
			report.Migrated++
		} else {
			report.Existing++
		}
	}
	s.Logger.Info("legacy followers migrated",
		zap.Int("scanned", report.Scanned),
		zap.Int("migrated", report.Migrated),
		zap.Int("existing", report.Existing),
		zap.Int("invalid", report.Invalid),
	)
	return report, nil
}

func (s *DefaultAdminService) CleanupLegacyFollowers(ctx context.Context, caller utils.Identity) (*models.LegacyCleanupReport, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	n, err := s.Legacy.DeleteAll(ctx)
	if err != nil {
		s.Logger.Error("legacy follower cleanup failed", zap.Error(err))
		return nil, newError(CodeInternal, "failed to delete legacy followers")
	}
	s.Logger.Info("legacy followers deleted", zap.Int64("deleted", n))
	return &models.LegacyCleanupReport{Deleted: n}, nil
}
