package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/solimsadek-max/NCP/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username     string `validate:"required,max=64"`
	Phone        string `validate:"required,numeric,min=10,max=15"`
	Email        string `validate:"omitempty,email"`
	ReferralCode string `validate:"omitempty,alphanum,max=32"`
	TelegramID   *int64
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.ReferralCode = strings.ToUpper(strings.TrimSpace(req.ReferralCode))
	if err := s.validateStruct(req); err != nil {
		return nil, s.rejected("register", err)
	}

	unlock := s.locks.Lock("phone:" + req.Phone)
	defer unlock()

	existing, err := s.repo.GetUserByPhone(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up phone: %w", err)
	}
	if existing != nil {
		return nil, s.rejected("register", ErrPhoneTaken)
	}

	if req.TelegramID != nil {
		linked, err := s.repo.GetUserByTelegramID(ctx, *req.TelegramID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up telegram id: %w", err)
		}
		if linked != nil {
			return nil, s.rejected("register", ErrAlreadyRegistered)
		}
	}

	user := &models.User{
		ID:         s.newID(),
		TelegramID: req.TelegramID,
		Username:   req.Username,
		Phone:      req.Phone,
		Email:      req.Email,
		IsAdmin:    s.cfg.AdminPhone != "" && req.Phone == s.cfg.AdminPhone,
		CreatedAt:  s.now(),
	}
	if req.ReferralCode != "" {
		code := req.ReferralCode
		user.ReferrerID = &code
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infof("User %s registered with phone %s", user.ID, user.Phone)
	return user, nil
}

// Login finds the user by phone and, when telegramID is given, links the chat
// to that account.
func (s *Service) Login(ctx context.Context, phone string, telegramID *int64) (*models.User, error) {
	found, err := s.repo.GetUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, fmt.Errorf("failed to look up phone: %w", err)
	}
	if found == nil {
		return nil, s.rejected("login", ErrNotFound)
	}

	var result *models.User
	err = s.withUser(ctx, found.ID, func(user *models.User) error {
		if user.IsBlocked {
			return ErrUserBlocked
		}

		result = user
		if telegramID == nil || (user.TelegramID != nil && *user.TelegramID == *telegramID) {
			return nil
		}

		linked, err := s.repo.GetUserByTelegramID(ctx, *telegramID)
		if err != nil {
			return fmt.Errorf("failed to look up telegram id: %w", err)
		}
		if linked != nil && linked.ID != user.ID {
			return ErrAlreadyRegistered
		}

		updated := *user
		id := *telegramID
		updated.TelegramID = &id
		if err := s.repo.UpdateUser(ctx, &updated); err != nil {
			return fmt.Errorf("failed to link telegram id: %w", err)
		}
		result = &updated
		return nil
	})
	if err != nil {
		return nil, s.rejected("login", err)
	}
	return result, nil
}

// Logout detaches the telegram chat from the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.withUser(ctx, userID, func(user *models.User) error {
		if user.TelegramID == nil {
			return nil
		}
		user.TelegramID = nil
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to unlink telegram id: %w", err)
		}
		return nil
	})
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var result *models.User
	err := s.withUser(ctx, userID, func(user *models.User) error {
		result = user
		return nil
	})
	return result, err
}

// GetUserByTelegramID returns (nil, nil) when no account is linked to the chat.
func (s *Service) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	found, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if found == nil {
		return nil, nil
	}
	return s.GetUser(ctx, found.ID)
}

type pinRequest struct {
	Pin string `validate:"required,numeric,min=4,max=6"`
}

func (s *Service) SetWithdrawPin(ctx context.Context, userID, pin string) error {
	if err := s.validateStruct(pinRequest{Pin: pin}); err != nil {
		return s.rejected("set_pin", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}

	err = s.withUser(ctx, userID, func(user *models.User) error {
		if user.IsBlocked {
			return ErrUserBlocked
		}
		user.WithdrawPinHash = string(hash)
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to save pin: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.rejected("set_pin", err)
	}

	s.logger.Infof("User %s changed withdraw pin", userID)
	return nil
}

func (s *Service) SetBlocked(ctx context.Context, adminID, userID string, blocked bool) (*models.User, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, s.rejected("set_blocked", err)
	}
	if adminID == userID {
		return nil, s.rejected("set_blocked", ErrInvalidInput)
	}

	var result *models.User
	err := s.withUser(ctx, userID, func(user *models.User) error {
		user.IsBlocked = blocked
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, s.rejected("set_blocked", err)
	}

	s.logger.Warnf("User %s blocked=%t by admin %s", userID, blocked, adminID)
	return result, nil
}

// ListUsers returns every user, newest registration first.
func (s *Service) ListUsers(ctx context.Context, adminID string) ([]*models.User, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, s.rejected("list_users", err)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

// FindUserByPhone is the admin lookup used before moderating an account.
func (s *Service) FindUserByPhone(ctx context.Context, adminID, phone string) (*models.User, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, s.rejected("find_user", err)
	}

	found, err := s.repo.GetUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, fmt.Errorf("failed to look up phone: %w", err)
	}
	if found == nil {
		return nil, s.rejected("find_user", ErrNotFound)
	}
	return s.GetUser(ctx, found.ID)
}
