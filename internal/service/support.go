package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/solimsadek-max/NCP/internal/models"
)

type SupportRequest struct {
	Subject string `validate:"required,max=255"`
	Message string `validate:"required,max=4000"`
}

func (s *Service) OpenToken(ctx context.Context, userID string, req SupportRequest) (*models.SupportToken, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validateStruct(req); err != nil {
		return nil, s.rejected("open_token", err)
	}

	var token *models.SupportToken
	err := s.withUser(ctx, userID, func(user *models.User) error {
		if user.IsBlocked {
			return ErrUserBlocked
		}

		token = &models.SupportToken{
			ID:        "TKN-" + strings.ToUpper(s.newID()),
			UserID:    user.ID,
			Username:  user.Username,
			Subject:   req.Subject,
			Message:   req.Message,
			Status:    models.SupportOpen,
			CreatedAt: s.now(),
		}
		if err := s.repo.CreateSupportToken(ctx, token); err != nil {
			return fmt.Errorf("failed to create support token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.rejected("open_token", err)
	}

	s.logger.Infof("Support token %s opened by user %s", token.ID, userID)
	return token, nil
}

// AdvanceToken moves a token strictly forward: OPEN, IN_PROGRESS, RESOLVED.
func (s *Service) AdvanceToken(ctx context.Context, adminID, tokenID string, status models.SupportStatus) (*models.SupportToken, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, s.rejected("advance_token", err)
	}
	if status.Rank() == 0 {
		return nil, s.rejected("advance_token", ErrInvalidTransition)
	}

	unlock := s.locks.Lock("token:" + tokenID)
	defer unlock()

	token, err := s.repo.GetSupportToken(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get support token: %w", err)
	}
	if token == nil {
		return nil, s.rejected("advance_token", ErrNotFound)
	}
	if status.Rank() <= token.Status.Rank() {
		return nil, s.rejected("advance_token", ErrInvalidTransition)
	}

	updated := *token
	updated.Status = status
	if err := s.repo.UpdateSupportToken(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update support token: %w", err)
	}

	s.logger.Infof("Support token %s moved %s -> %s by admin %s", tokenID, token.Status, status, adminID)
	return &updated, nil
}

// ListSupportTokens returns the user's tokens, newest first.
func (s *Service) ListSupportTokens(ctx context.Context, userID string) ([]*models.SupportToken, error) {
	tokens, err := s.repo.ListSupportTokens(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list support tokens: %w", err)
	}
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].CreatedAt.After(tokens[j].CreatedAt) })
	return tokens, nil
}

// ListOpenSupportTokens returns every unresolved token, oldest first.
func (s *Service) ListOpenSupportTokens(ctx context.Context, adminID string) ([]*models.SupportToken, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, s.rejected("list_tokens", err)
	}

	tokens, err := s.repo.ListSupportTokens(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list support tokens: %w", err)
	}

	open := tokens[:0]
	for _, token := range tokens {
		if token.Status != models.SupportResolved {
			open = append(open, token)
		}
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })
	return open, nil
}
