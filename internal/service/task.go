package service

import (
	"context"
	"fmt"
	"time"

	"github.com/solimsadek-max/NCP/internal/metrics"
	"github.com/solimsadek-max/NCP/internal/models"
)

const DefaultTaskCooldown = 24 * time.Hour

// RemainingCooldown returns how long until the next task may be completed, and
// false when the user is free to complete one now.
func RemainingCooldown(lastCompleted *time.Time, now time.Time, window time.Duration) (time.Duration, bool) {
	if lastCompleted == nil {
		return 0, false
	}
	next := lastCompleted.Add(window)
	if !now.Before(next) {
		return 0, false
	}
	return next.Sub(now), true
}

func (s *Service) TaskCooldown(user *models.User) (time.Duration, bool) {
	return RemainingCooldown(user.LastTaskCompletedAt, s.now(), s.cfg.TaskCooldown)
}

// CompleteTask pays the active tier's daily profit into both balances, at most
// once per cooldown window.
func (s *Service) CompleteTask(ctx context.Context, userID string) (*models.User, *models.Transaction, error) {
	var (
		updated models.User
		tx      *models.Transaction
	)
	err := s.withUser(ctx, userID, func(user *models.User) error {
		if user.IsBlocked {
			return ErrUserBlocked
		}

		now := s.now()
		if !MembershipActive(user, now) {
			return ErrNoActiveMembership
		}
		if left, active := RemainingCooldown(user.LastTaskCompletedAt, now, s.cfg.TaskCooldown); active {
			return fmt.Errorf("%w: %s left", ErrCooldownActive, left.Round(time.Second))
		}

		tier, err := s.catalog.Get(*user.ActiveVIP)
		if err != nil {
			return err
		}

		updated = *user
		updated.TotalBalance = user.TotalBalance.Add(tier.DailyProfit)
		updated.WithdrawableBalance = user.WithdrawableBalance.Add(tier.DailyProfit)
		updated.LastTaskCompletedAt = &now

		tx = s.newTransaction(user.ID, models.TransactionProfit, tier.DailyProfit, models.StatusApproved,
			fmt.Sprintf("Daily task profit from %s", tier.Name), now)

		return s.commit(ctx, &updated, tx)
	})
	if err != nil {
		return nil, nil, s.rejected("complete_task", err)
	}

	metrics.TasksCompletedTotal.Inc()
	s.logger.Infof("User %s completed daily task, earned %s", userID, tx.Amount.StringFixed(2))
	return &updated, tx, nil
}
