package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/solimsadek-max/NCP/internal/models"
)

// Catalog is the in-memory view of the VIP tiers. Readers always see either the
// old or the new definition of a tier, never a mix.
type Catalog struct {
	mu       sync.RWMutex
	levels   map[int]models.VIPLevel
	version  int64
	repo     Repository
	validate *validator.Validate
}

func newCatalog(repo Repository, validate *validator.Validate) *Catalog {
	return &Catalog{
		levels:   make(map[int]models.VIPLevel),
		repo:     repo,
		validate: validate,
	}
}

func (c *Catalog) load(ctx context.Context) error {
	levels, err := c.repo.ListVIPLevels(ctx)
	if err != nil {
		return err
	}

	if len(levels) == 0 {
		levels = models.DefaultVIPLevels()
		err := c.repo.Atomic(ctx, func(repo Repository) error {
			for i := range levels {
				if err := repo.SaveVIPLevel(ctx, &levels[i]); err != nil {
					return fmt.Errorf("failed to seed vip level %d: %w", levels[i].Level, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, level := range levels {
		c.levels[level.Level] = level
	}
	c.version++
	return nil
}

func (c *Catalog) Get(level int) (models.VIPLevel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tier, ok := c.levels[level]
	if !ok {
		return models.VIPLevel{}, fmt.Errorf("vip level %d: %w", level, ErrNotFound)
	}
	return tier, nil
}

// List returns the tiers ordered by level.
func (c *Catalog) List() []models.VIPLevel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.VIPLevel, 0, len(c.levels))
	for _, tier := range c.levels {
		out = append(out, tier)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

func (c *Catalog) Version() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Catalog) replace(ctx context.Context, def models.VIPLevel) (models.VIPLevel, error) {
	if err := c.validate.Struct(def); err != nil {
		return models.VIPLevel{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !wholeCents(def.Price) || !wholeCents(def.DailyProfit) {
		return models.VIPLevel{}, fmt.Errorf("%w: price and daily profit take at most two decimals", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.levels[def.Level]; !ok {
		return models.VIPLevel{}, fmt.Errorf("vip level %d: %w", def.Level, ErrNotFound)
	}
	if err := c.repo.SaveVIPLevel(ctx, &def); err != nil {
		return models.VIPLevel{}, fmt.Errorf("failed to save vip level: %w", err)
	}
	c.levels[def.Level] = def
	c.version++
	return def, nil
}

// ReplaceLevel swaps the definition of one tier. Existing memberships keep
// their expiry date; new purchases and task payouts use the new terms.
func (s *Service) ReplaceLevel(ctx context.Context, adminID string, level int, def models.VIPLevel) (models.VIPLevel, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return models.VIPLevel{}, s.rejected("replace_level", err)
	}

	def.Level = level
	tier, err := s.catalog.replace(ctx, def)
	if err != nil {
		return models.VIPLevel{}, s.rejected("replace_level", err)
	}

	s.logger.Infof("VIP level %d replaced by admin %s (catalog version %d)", level, adminID, s.catalog.Version())
	return tier, nil
}
