package repository

import (
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/utils"
	"gorm.io/gorm"
)

// Repository is the postgres-backed store. Lookups return (nil, nil) when the
// row does not exist.
type Repository struct {
	db     *gorm.DB
	logger *utils.Logger
	inTx   bool
}

var _ service.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB, logger *utils.Logger) *Repository {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Repository{db: db, logger: logger}
}
