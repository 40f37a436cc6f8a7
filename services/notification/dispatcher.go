package notification

import (
	"context"
	"sync/atomic"

	"orgalerts/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result aggregates one dispatch run. Counts are per token, not per user.
type Result struct {
	Success      int
	Failure      int
	Skipped      int
	FailedTokens []string
}

// Attempted is the number of tokens a send was tried for.
func (r Result) Attempted() int {
	return r.Success + r.Failure
}

// Dispatch sends one push per token. A failed send is counted and logged; it
// never stops the remaining sends. Once ctx is done, unsent tokens are counted
// as skipped rather than attempted.
func (s *DefaultNotificationService) Dispatch(ctx context.Context, alert *models.Alert, tokens []string) Result {
	title := BuildTitle(alert)

	var success, failure, skipped atomic.Int64
	failed := make([]bool, len(tokens))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, token := range tokens {
		if ctx.Err() != nil {
			skipped.Add(int64(len(tokens) - i))
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			id, err := s.sender.Send(ctx, BuildMessage(alert, title, token))
			if err != nil {
				failure.Add(1)
				failed[i] = true
				s.logger.Warn("push send failed",
					zap.String("alertId", alert.ID),
					zap.Int("recipient", i),
					zap.Error(err),
				)
				return nil
			}
			success.Add(1)
			s.logger.Debug("push sent", zap.String("alertId", alert.ID), zap.String("messageId", id))
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Success: int(success.Load()),
		Failure: int(failure.Load()),
		Skipped: int(skipped.Load()),
	}
	for i, f := range failed {
		if f {
			res.FailedTokens = append(res.FailedTokens, tokens[i])
		}
	}

	s.logger.Info("dispatch finished",
		zap.String("alertId", alert.ID),
		zap.Int("tokens", len(tokens)),
		zap.Int("success", res.Success),
		zap.Int("failure", res.Failure),
		zap.Int("skipped", res.Skipped),
	)
	return res
}
