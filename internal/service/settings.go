package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/models"
)

// Settings holds the admin-editable app config. Updates are visible to every
// later reader.
type Settings struct {
	mu   sync.RWMutex
	cfg  models.AppConfig
	repo Repository
}

func newSettings(repo Repository) *Settings {
	return &Settings{repo: repo}
}

func (st *Settings) load(ctx context.Context, defaultMinWithdrawal decimal.Decimal) error {
	cfg, err := st.repo.GetAppConfig(ctx)
	if err != nil {
		return err
	}

	if cfg == nil {
		cfg = &models.AppConfig{ID: 1, MinWithdrawal: defaultMinWithdrawal, Version: 1}
		if err := st.repo.SaveAppConfig(ctx, cfg); err != nil {
			return fmt.Errorf("failed to seed app config: %w", err)
		}
	}

	st.mu.Lock()
	st.cfg = *cfg
	st.mu.Unlock()
	return nil
}

func (st *Settings) Snapshot() models.AppConfig {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.cfg
}

func (st *Settings) MinWithdrawal() decimal.Decimal {
	return st.Snapshot().MinWithdrawal
}

func (st *Settings) setMinWithdrawal(ctx context.Context, value decimal.Decimal) (models.AppConfig, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.cfg
	next.MinWithdrawal = value
	next.Version++
	if err := st.repo.SaveAppConfig(ctx, &next); err != nil {
		return models.AppConfig{}, fmt.Errorf("failed to save app config: %w", err)
	}
	st.cfg = next
	return next, nil
}

func (s *Service) UpdateMinWithdrawal(ctx context.Context, adminID string, value decimal.Decimal) (models.AppConfig, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return models.AppConfig{}, s.rejected("update_min_withdrawal", err)
	}
	if value.IsNegative() || !wholeCents(value) {
		return models.AppConfig{}, s.rejected("update_min_withdrawal", ErrInvalidAmount)
	}

	cfg, err := s.settings.setMinWithdrawal(ctx, value)
	if err != nil {
		return models.AppConfig{}, err
	}

	s.logger.Infof("Minimum withdrawal set to %s by admin %s", value.StringFixed(2), adminID)
	return cfg, nil
}
