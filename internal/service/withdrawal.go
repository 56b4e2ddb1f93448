package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/metrics"
	"github.com/solimsadek-max/NCP/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// DefaultWithdrawPin applies to users who never set their own pin.
const DefaultWithdrawPin = "1234"

func (s *Service) checkPin(user *models.User, pin string) error {
	if user.WithdrawPinHash == "" {
		if subtle.ConstantTimeCompare([]byte(pin), []byte(s.cfg.DefaultWithdrawPin)) != 1 {
			return ErrInvalidPin
		}
		return nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(user.WithdrawPinHash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPin
	}
	if err != nil {
		return fmt.Errorf("failed to verify pin: %w", err)
	}
	return nil
}

// RequestWithdrawal holds the amount immediately and records a pending
// withdrawal. A rejection by an admin restores the balances.
func (s *Service) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, pin string) (*models.User, *models.Transaction, error) {
	var (
		updated models.User
		tx      *models.Transaction
	)
	err := s.withUser(ctx, userID, func(user *models.User) error {
		if user.IsBlocked {
			return ErrUserBlocked
		}
		if amount.LessThan(s.settings.MinWithdrawal()) {
			return ErrBelowMinimum
		}
		if !amount.IsPositive() || !wholeCents(amount) {
			return ErrInvalidAmount
		}
		if amount.GreaterThan(user.WithdrawableBalance) {
			return ErrInsufficientBalance
		}
		if err := s.checkPin(user, pin); err != nil {
			return err
		}

		updated = *user
		updated.TotalBalance = user.TotalBalance.Sub(amount)
		updated.WithdrawableBalance = user.WithdrawableBalance.Sub(amount)

		tx = s.newTransaction(user.ID, models.TransactionWithdraw, amount, models.StatusPending,
			"Withdrawal request", s.now())

		return s.commit(ctx, &updated, tx)
	})
	if err != nil {
		return nil, nil, s.rejected("request_withdrawal", err)
	}

	metrics.WithdrawalRequestsTotal.Inc()
	s.logger.Infof("User %s requested withdrawal of %s", userID, amount.StringFixed(2))
	return &updated, tx, nil
}
