package repository

import (
	"context"

	"github.com/solimsadek-max/NCP/internal/service"
	"gorm.io/gorm"
)

// Atomic runs fn inside a database transaction. Nested calls reuse the
// surrounding transaction.
func (r *Repository) Atomic(ctx context.Context, fn func(repo service.Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	r.logger.Debug("Starting transaction...")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger, inTx: true})
	})
	if err != nil {
		r.logger.Warnf("Transaction rolled back: %v", err)
		return err
	}
	return nil
}
