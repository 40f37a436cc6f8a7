package alerts

import (
	"context"
	"fmt"
	"time"

	"orgalerts/models"
	"orgalerts/services/notification"

	"go.uber.org/zap"
)

// Outcome summarizes one pipeline run.
type Outcome struct {
	AlertID   string
	Duplicate bool
	// InFlight marks a skip caused by a dispatch claim held by another run,
	// which may have crashed. The caller should retry after the claim lease.
	InFlight  bool
	Followers int
	Eligible  int
	Tokens    int
	Result    notification.Result
}

// Pipeline wires follower resolution, eligibility, token resolution, dispatch
// and the status write for one alert.
type Pipeline struct {
	followers *FollowerResolver
	filter    *EligibilityFilter
	tokens    *TokenResolver
	notifier  notification.NotificationService
	status    *StatusWriter
	guard     IdempotencyGuard
	logger    *zap.Logger
	timeout   time.Duration
}

// PipelineConfig collects the collaborators of a Pipeline.
type PipelineConfig struct {
	Followers *FollowerResolver
	Filter    *EligibilityFilter
	Tokens    *TokenResolver
	Notifier  notification.NotificationService
	Status    *StatusWriter
	// Guard may be nil, in which case every trigger dispatches.
	Guard   IdempotencyGuard
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Followers == nil || cfg.Filter == nil || cfg.Tokens == nil || cfg.Notifier == nil || cfg.Status == nil {
		return nil, fmt.Errorf("alert pipeline initialization error: missing collaborator")
	}
	if cfg.Guard == nil {
		cfg.Guard = noopGuard{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pipeline{
		followers: cfg.Followers,
		filter:    cfg.Filter,
		tokens:    cfg.Tokens,
		notifier:  cfg.Notifier,
		status:    cfg.Status,
		guard:     cfg.Guard,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
	}, nil
}

func (p *Pipeline) HandleAlertCreated(ctx context.Context, alert *models.Alert) (Outcome, error) {
	if alert.NotificationsSent {
		p.logger.Info("alert already dispatched, skipping", zap.String("alertId", alert.ID))
		return Outcome{AlertID: alert.ID, Duplicate: true}, nil
	}

	acquired, err := p.guard.Acquire(ctx, alert.ID)
	if err != nil {
		p.logger.Warn("idempotency guard unavailable, dispatching anyway",
			zap.String("alertId", alert.ID), zap.Error(err))
		acquired = true
	}
	if !acquired {
		p.logger.Info("alert claimed by another run, skipping", zap.String("alertId", alert.ID))
		return Outcome{AlertID: alert.ID, Duplicate: true, InFlight: true}, nil
	}
	return p.process(ctx, alert)
}

func (p *Pipeline) Redispatch(ctx context.Context, alert *models.Alert) (Outcome, error) {
	if _, err := p.guard.Acquire(ctx, alert.ID); err != nil {
		p.logger.Warn("idempotency guard unavailable", zap.String("alertId", alert.ID), zap.Error(err))
	}
	return p.process(ctx, alert)
}

func (p *Pipeline) process(ctx context.Context, alert *models.Alert) (Outcome, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.run(ctx, alert)
	if err != nil {
		p.logger.Error("alert pipeline failed", zap.String("alertId", alert.ID), zap.Error(err))
		p.status.Failed(ctx, alert, err)
		if rerr := p.guard.Release(context.WithoutCancel(ctx), alert.ID); rerr != nil {
			p.logger.Warn("failed to release dispatch claim", zap.String("alertId", alert.ID), zap.Error(rerr))
		}
		return out, err
	}
	p.status.Delivered(ctx, alert, out.Result)
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, alert *models.Alert) (Outcome, error) {
	out := Outcome{AlertID: alert.ID}
	log := p.logger.With(zap.String("alertId", alert.ID), zap.String("organizationId", alert.OrganizationID))

	followerIDs, err := p.followers.Resolve(ctx, alert.OrganizationID, alert.PostedByUserID)
	if err != nil {
		return out, err
	}
	out.Followers = len(followerIDs)
	if len(followerIDs) == 0 {
		log.Info("no followers to notify")
		return out, nil
	}

	eligible := p.filter.Filter(ctx, alert, followerIDs)
	out.Eligible = len(eligible)
	if len(eligible) == 0 {
		log.Info("no eligible recipients", zap.Int("followers", out.Followers))
		return out, nil
	}

	set := p.tokens.Resolve(ctx, eligible)
	out.Tokens = len(set.Tokens)
	if len(set.Tokens) == 0 {
		log.Info("no valid delivery tokens", zap.Int("eligible", out.Eligible))
		return out, nil
	}
	if ctx.Err() != nil {
		return out, fmt.Errorf("deadline reached before dispatch of %d tokens: %w", len(set.Tokens), ctx.Err())
	}

	out.Result = p.notifier.Dispatch(ctx, alert, set.Tokens)
	log.Info("alert fan-out complete",
		zap.Int("followers", out.Followers),
		zap.Int("eligible", out.Eligible),
		zap.Int("tokens", out.Tokens),
		zap.Int("duplicateTokens", set.Duplicates),
		zap.Int("success", out.Result.Success),
		zap.Int("failure", out.Result.Failure),
	)
	return out, nil
}
