package alerts

import (
	"context"
	"errors"

	"orgalerts/database"
	userRepo "orgalerts/database/repository/user"
	"orgalerts/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TokenSet is the deduplicated delivery list of one alert.
type TokenSet struct {
	Tokens []string
	// Owners maps each token to every eligible user that holds it.
	Owners map[string][]string
	// Duplicates counts users whose token was already collected from another user.
	Duplicates int
}

// TokenResolver maps eligible users to unique, plausible FCM tokens.
type TokenResolver struct {
	users          userRepo.UserRepository
	logger         *zap.Logger
	concurrency    int
	minTokenLength int
}

func NewTokenResolver(users userRepo.UserRepository, logger *zap.Logger, concurrency, minTokenLength int) *TokenResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if minTokenLength <= 0 {
		minTokenLength = utils.DefaultMinTokenLength
	}
	return &TokenResolver{users: users, logger: logger, concurrency: concurrency, minTokenLength: minTokenLength}
}

// Resolve looks up each user's token. Users without a valid token, with alerts
// switched off or who cannot be read are skipped.
func (r *TokenResolver) Resolve(ctx context.Context, userIDs []string) TokenSet {
	found := make([]string, len(userIDs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, userID := range userIDs {
		g.Go(func() error {
			u, err := r.users.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					r.logger.Debug("no user document, skipping", zap.String("userId", userID))
				} else {
					r.logger.Warn("user lookup failed, skipping", zap.String("userId", userID), zap.Error(err))
				}
				return nil
			}
			if !u.ReceivesAlerts() {
				r.logger.Debug("user muted alerts, skipping", zap.String("userId", userID))
				return nil
			}
			if !utils.IsPlausibleToken(u.FCMToken, r.minTokenLength) {
				r.logger.Debug("missing or invalid token, skipping",
					zap.String("userId", userID),
					zap.Int("tokenLength", utils.TokenLength(u.FCMToken)),
				)
				return nil
			}
			found[i] = utils.NormalizeToken(u.FCMToken)
			return nil
		})
	}
	_ = g.Wait()

	set := TokenSet{Owners: map[string][]string{}}
	for i, tok := range found {
		if tok == "" {
			continue
		}
		owners, seen := set.Owners[tok]
		set.Owners[tok] = append(owners, userIDs[i])
		if seen {
			set.Duplicates++
			r.logger.Info("duplicate token collapsed",
				zap.String("userId", userIDs[i]),
				zap.String("firstUserId", owners[0]),
			)
			continue
		}
		set.Tokens = append(set.Tokens, tok)
	}
	return set
}
