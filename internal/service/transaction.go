package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/metrics"
	"github.com/solimsadek-max/NCP/internal/models"
)

const DefaultMinDeposit = 500

var PaymentMethods = []string{"bkash", "nagad", "rocket", "bank"}

// wholeCents reports whether amount fits a two-decimal money column.
func wholeCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}

func validPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// RequestDeposit records a pending deposit. Balances change only when an admin
// approves it.
func (s *Service) RequestDeposit(ctx context.Context, userID string, amount decimal.Decimal, method string) (*models.Transaction, error) {
	method = strings.ToLower(strings.TrimSpace(method))

	var tx *models.Transaction
	err := s.withUser(ctx, userID, func(user *models.User) error {
		if user.IsBlocked {
			return ErrUserBlocked
		}
		if amount.LessThan(s.cfg.MinDeposit) {
			return ErrBelowMinimum
		}
		if !amount.IsPositive() || !wholeCents(amount) {
			return ErrInvalidAmount
		}
		if !validPaymentMethod(method) {
			return ErrInvalidMethod
		}

		tx = s.newTransaction(user.ID, models.TransactionDeposit, amount, models.StatusPending,
			"Deposit request via "+method, s.now())
		if err := s.repo.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.rejected("request_deposit", err)
	}

	metrics.DepositRequestsTotal.WithLabelValues(method).Inc()
	s.logger.Infof("User %s requested deposit of %s via %s", userID, amount.StringFixed(2), method)
	return tx, nil
}

// ResolveTransaction approves or rejects a pending transaction. An approved
// deposit credits both balances; a rejected withdrawal returns the held amount.
func (s *Service) ResolveTransaction(ctx context.Context, adminID, txID string, status models.TransactionStatus) (*models.Transaction, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, s.rejected("resolve_transaction", err)
	}
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, s.rejected("resolve_transaction", ErrInvalidTransition)
	}

	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil {
		return nil, s.rejected("resolve_transaction", ErrNotFound)
	}

	err = s.withUser(ctx, tx.UserID, func(user *models.User) error {
		// Re-read under the owner's lock so two admins cannot both resolve it.
		current, err := s.repo.GetTransaction(ctx, txID)
		if err != nil {
			return fmt.Errorf("failed to get transaction: %w", err)
		}
		if current == nil {
			return ErrNotFound
		}
		if current.Status != models.StatusPending {
			return ErrAlreadyResolved
		}

		credit := (current.Type == models.TransactionDeposit && status == models.StatusApproved) ||
			(current.Type == models.TransactionWithdraw && status == models.StatusRejected)

		updated := *user
		if credit {
			updated.TotalBalance = user.TotalBalance.Add(current.Amount)
			updated.WithdrawableBalance = user.WithdrawableBalance.Add(current.Amount)
		}

		err = s.repo.Atomic(ctx, func(repo Repository) error {
			if err := repo.UpdateTransactionStatus(ctx, current.ID, models.StatusPending, status); err != nil {
				return err
			}
			if credit {
				if err := repo.UpdateUser(ctx, &updated); err != nil {
					return fmt.Errorf("failed to update user: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		current.Status = status
		tx = current
		return nil
	})
	if err != nil {
		return nil, s.rejected("resolve_transaction", err)
	}

	metrics.TransactionsResolvedTotal.WithLabelValues(string(tx.Type), string(status)).Inc()
	s.logger.Infof("Transaction %s (%s %s) marked %s by admin %s", tx.ID, tx.Type, tx.Amount.StringFixed(2), status, adminID)
	return tx, nil
}

// ListTransactions returns the user's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, models.TransactionFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sortNewestFirst(txs)
	return txs, nil
}

// ListPendingTransactions returns pending transactions of the given type, or of
// every type when typ is empty, oldest first.
func (s *Service) ListPendingTransactions(ctx context.Context, adminID string, typ models.TransactionType) ([]*models.Transaction, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, s.rejected("list_pending", err)
	}

	txs, err := s.repo.ListTransactions(ctx, models.TransactionFilter{Type: typ, Status: models.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
	return txs, nil
}

func sortNewestFirst(txs []*models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
}
