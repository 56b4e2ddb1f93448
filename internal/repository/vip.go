package repository

import (
	"context"
	"fmt"

	"github.com/solimsadek-max/NCP/internal/models"
	"gorm.io/gorm/clause"
)

func (r *Repository) ListVIPLevels(ctx context.Context) ([]models.VIPLevel, error) {
	var levels []models.VIPLevel
	if err := r.db.WithContext(ctx).Order("level ASC").Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to list vip levels: %w", err)
	}
	return levels, nil
}

func (r *Repository) SaveVIPLevel(ctx context.Context, level *models.VIPLevel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "daily_profit", "tasks_per_day", "validity_days", "image_url"}),
	}).Create(level).Error
}

func (r *Repository) GetAppConfig(ctx context.Context) (*models.AppConfig, error) {
	var cfgs []models.AppConfig
	if err := r.db.WithContext(ctx).Where("id = ?", 1).Limit(1).Find(&cfgs).Error; err != nil {
		return nil, fmt.Errorf("failed to get app config: %w", err)
	}
	if len(cfgs) == 0 {
		return nil, nil
	}
	return &cfgs[0], nil
}

func (r *Repository) SaveAppConfig(ctx context.Context, cfg *models.AppConfig) error {
	cfg.ID = 1
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"min_withdrawal", "version"}),
	}).Create(cfg).Error
}
