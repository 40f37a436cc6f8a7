package alerts

import (
	"context"

	"orgalerts/models"
	"orgalerts/services/preferences"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EligibilityFilter narrows followers to the recipients of one alert.
//
// Group-scoped alerts include followers whose preference for the group is true
// or unset; unset preferences are initialized to true. Alerts without a group
// include followers with no preferences yet or at least one enabled group.
// A follower whose preferences cannot be read is included.
type EligibilityFilter struct {
	store       preferences.Store
	logger      *zap.Logger
	concurrency int
}

func NewEligibilityFilter(store preferences.Store, logger *zap.Logger, concurrency int) *EligibilityFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &EligibilityFilter{store: store, logger: logger, concurrency: concurrency}
}

// Filter returns the eligible subset of followerIDs, preserving their order.
func (f *EligibilityFilter) Filter(ctx context.Context, alert *models.Alert, followerIDs []string) []string {
	include := make([]bool, len(followerIDs))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, userID := range followerIDs {
		g.Go(func() error {
			if alert.HasGroup() {
				include[i] = f.groupScoped(ctx, alert, userID)
			} else {
				include[i] = f.allMembers(ctx, alert, userID)
			}
			return nil
		})
	}
	_ = g.Wait()

	eligible := make([]string, 0, len(followerIDs))
	for i, ok := range include {
		if ok {
			eligible = append(eligible, followerIDs[i])
		}
	}
	return eligible
}

func (f *EligibilityFilter) groupScoped(ctx context.Context, alert *models.Alert, userID string) bool {
	prefs, found, err := f.store.Get(ctx, alert.OrganizationID, userID)
	if err != nil {
		f.logger.Warn("preference read failed, including follower",
			zap.String("alertId", alert.ID),
			zap.String("userId", userID),
			zap.Error(err),
		)
		return true
	}

	if found {
		if enabled, set := prefs[alert.GroupID]; set {
			return enabled
		}
	}

	if _, err := f.store.InitGroup(ctx, alert.OrganizationID, userID, alert.GroupID); err != nil {
		f.logger.Warn("preference init failed, including follower",
			zap.String("alertId", alert.ID),
			zap.String("userId", userID),
			zap.String("groupId", alert.GroupID),
			zap.Error(err),
		)
	}
	return true
}

func (f *EligibilityFilter) allMembers(ctx context.Context, alert *models.Alert, userID string) bool {
	prefs, found, err := f.store.Get(ctx, alert.OrganizationID, userID)
	if err != nil {
		f.logger.Warn("preference read failed, including follower",
			zap.String("alertId", alert.ID),
			zap.String("userId", userID),
			zap.Error(err),
		)
		return true
	}
	if !found || len(prefs) == 0 {
		return true
	}
	for _, enabled := range prefs {
		if enabled {
			return true
		}
	}
	return false
}
