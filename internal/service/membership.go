package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/solimsadek-max/NCP/internal/metrics"
	"github.com/solimsadek-max/NCP/internal/models"
)

// MembershipActive reports whether the user holds a tier that has not expired at now.
func MembershipActive(user *models.User, now time.Time) bool {
	return user.ActiveVIP != nil && user.VIPExpiryDate != nil && !now.After(*user.VIPExpiryDate)
}

// RemainingDays is the number of whole days left, rounded up, or 0 without a membership.
func RemainingDays(user *models.User, now time.Time) int {
	if !MembershipActive(user, now) {
		return 0
	}
	left := user.VIPExpiryDate.Sub(now)
	return int(math.Ceil(left.Hours() / 24))
}

// expireIfLapsed clears a membership whose expiry has passed, or a record that
// carries only half of the tier/expiry pair, and reports whether it did. The
// caller holds the user's lock.
func (s *Service) expireIfLapsed(ctx context.Context, user *models.User, now time.Time) (bool, error) {
	if user.ActiveVIP == nil && user.VIPExpiryDate == nil {
		return false, nil
	}
	if MembershipActive(user, now) {
		return false, nil
	}

	level := 0
	if user.ActiveVIP != nil {
		level = *user.ActiveVIP
	}
	expiredAt := now
	if user.VIPExpiryDate != nil {
		expiredAt = *user.VIPExpiryDate
	}

	user.ActiveVIP = nil
	user.VIPExpiryDate = nil
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return false, fmt.Errorf("failed to clear expired membership: %w", err)
	}

	metrics.MembershipsExpiredTotal.Inc()
	s.logger.Infof("VIP %d membership of user %s expired at %s", level, user.ID, expiredAt.Format(time.RFC3339))
	if s.notifyExpired != nil && level > 0 {
		s.notifyExpired(user, level, expiredAt)
	}
	return true, nil
}

// PurchaseVIP buys a tier with the withdrawable balance. Only a strictly higher
// tier than the current active one can be bought.
func (s *Service) PurchaseVIP(ctx context.Context, userID string, level int) (*models.User, *models.Transaction, error) {
	tier, err := s.catalog.Get(level)
	if err != nil {
		return nil, nil, s.rejected("purchase_vip", err)
	}

	var (
		updated models.User
		tx      *models.Transaction
	)
	err = s.withUser(ctx, userID, func(user *models.User) error {
		if user.IsBlocked {
			return ErrUserBlocked
		}
		if user.ActiveVIP != nil && *user.ActiveVIP >= tier.Level {
			return ErrAlreadyHigherOrEqualTier
		}
		if user.WithdrawableBalance.LessThan(tier.Price) {
			return ErrInsufficientBalance
		}

		now := s.now()
		expiry := now.Add(time.Duration(tier.ValidityDays) * 24 * time.Hour)
		vip := tier.Level

		updated = *user
		updated.WithdrawableBalance = user.WithdrawableBalance.Sub(tier.Price)
		updated.ActiveVIP = &vip
		updated.VIPExpiryDate = &expiry

		tx = s.newTransaction(user.ID, models.TransactionWithdraw, tier.Price, models.StatusApproved,
			fmt.Sprintf("VIP Level %d Purchase", tier.Level), now)

		return s.commit(ctx, &updated, tx)
	})
	if err != nil {
		return nil, nil, s.rejected("purchase_vip", err)
	}

	metrics.VIPPurchasesTotal.WithLabelValues(strconv.Itoa(tier.Level)).Inc()
	s.logger.Infof("User %s purchased VIP %d for %s", userID, tier.Level, tier.Price.StringFixed(2))
	return &updated, tx, nil
}

// ExpireLapsedMemberships clears every membership whose expiry has passed and
// returns how many were cleared.
func (s *Service) ExpireLapsedMemberships(ctx context.Context) (int, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	expired := 0
	for _, candidate := range users {
		if candidate.ActiveVIP == nil && candidate.VIPExpiryDate == nil {
			continue
		}
		if MembershipActive(candidate, now) {
			continue
		}

		cleared, err := s.expireUser(ctx, candidate.ID, now)
		if err != nil {
			s.logger.Errorf("Failed to expire membership of user %s: %v", candidate.ID, err)
			continue
		}
		if cleared {
			expired++
		}

		if err := ctx.Err(); err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// expireUser re-reads the user under its lock so a record cleared by another
// caller since the listing is not counted twice.
func (s *Service) expireUser(ctx context.Context, userID string, now time.Time) (bool, error) {
	unlock := s.locks.Lock(userKey(userID))
	defer unlock()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return false, nil
	}
	return s.expireIfLapsed(ctx, user, now)
}
