package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/solimsadek-max/NCP/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) CreateSupportToken(ctx context.Context, token *models.SupportToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *Repository) GetSupportToken(ctx context.Context, id string) (*models.SupportToken, error) {
	var token models.SupportToken
	err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get support token: %w", err)
	}
	return &token, nil
}

func (r *Repository) UpdateSupportToken(ctx context.Context, token *models.SupportToken) error {
	return r.db.WithContext(ctx).
		Model(&models.SupportToken{}).
		Where("id = ?", token.ID).
		Update("status", token.Status).
		Error
}

func (r *Repository) ListSupportTokens(ctx context.Context, userID string) ([]*models.SupportToken, error) {
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var tokens []*models.SupportToken
	if err := query.Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list support tokens: %w", err)
	}
	return tokens, nil
}
