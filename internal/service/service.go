package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/metrics"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/utils"
)

// Repository is the persistence contract shared by the postgres and redis stores.
// Lookups return (nil, nil) when the record does not exist.
type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	// UpdateTransactionStatus moves a transaction from one status to another and
	// returns ErrAlreadyResolved when its current status is not from.
	UpdateTransactionStatus(ctx context.Context, id string, from, to models.TransactionStatus) error
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)

	ListVIPLevels(ctx context.Context) ([]models.VIPLevel, error)
	SaveVIPLevel(ctx context.Context, level *models.VIPLevel) error

	GetAppConfig(ctx context.Context) (*models.AppConfig, error)
	SaveAppConfig(ctx context.Context, cfg *models.AppConfig) error

	CreateSupportToken(ctx context.Context, token *models.SupportToken) error
	GetSupportToken(ctx context.Context, id string) (*models.SupportToken, error)
	UpdateSupportToken(ctx context.Context, token *models.SupportToken) error
	ListSupportTokens(ctx context.Context, userID string) ([]*models.SupportToken, error)

	// Atomic runs fn against a repository whose writes commit together or not at all.
	Atomic(ctx context.Context, fn func(repo Repository) error) error
}

type Config struct {
	MinDeposit           decimal.Decimal
	DefaultMinWithdrawal decimal.Decimal
	DefaultWithdrawPin   string
	TaskCooldown         time.Duration
	AdminPhone           string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithExpiryNotifier(notify models.ExpiryNotifier) Option {
	return func(s *Service) { s.notifyExpired = notify }
}

type Service struct {
	repo          Repository
	logger        *utils.Logger
	cfg           Config
	catalog       *Catalog
	settings      *Settings
	locks         *keyedMutex
	validate      *validator.Validate
	now           func() time.Time
	newID         func() string
	notifyExpired models.ExpiryNotifier
}

// NewService loads the tier catalog and app settings, seeding defaults into an
// empty store.
func NewService(ctx context.Context, repo Repository, cfg Config, logger *utils.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	if !cfg.MinDeposit.IsPositive() {
		cfg.MinDeposit = decimal.NewFromInt(DefaultMinDeposit)
	}
	if cfg.TaskCooldown <= 0 {
		cfg.TaskCooldown = DefaultTaskCooldown
	}
	if cfg.DefaultWithdrawPin == "" {
		cfg.DefaultWithdrawPin = DefaultWithdrawPin
	}

	s := &Service{
		repo:     repo,
		logger:   logger,
		cfg:      cfg,
		locks:    newKeyedMutex(),
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.catalog = newCatalog(repo, s.validate)
	if err := s.catalog.load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load vip catalog: %w", err)
	}

	s.settings = newSettings(repo)
	if err := s.settings.load(ctx, cfg.DefaultMinWithdrawal); err != nil {
		return nil, fmt.Errorf("failed to load app settings: %w", err)
	}

	return s, nil
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) Settings() models.AppConfig {
	return s.settings.Snapshot()
}

func (s *Service) MinDeposit() decimal.Decimal {
	return s.cfg.MinDeposit
}

func (s *Service) Now() time.Time {
	return s.now()
}

// withUser runs fn with the user's lock held and an expiry-checked record.
func (s *Service) withUser(ctx context.Context, userID string, fn func(user *models.User) error) error {
	unlock := s.locks.Lock(userKey(userID))
	defer unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	return fn(user)
}

// loadUser must be called with the user's lock held.
func (s *Service) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if _, err := s.expireIfLapsed(ctx, user, s.now()); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) requireAdmin(ctx context.Context, adminID string) (*models.User, error) {
	admin, err := s.repo.GetUser(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil || !admin.IsAdmin || admin.IsBlocked {
		return nil, ErrForbidden
	}
	return admin, nil
}

// commit persists the updated user together with an optional new ledger entry.
func (s *Service) commit(ctx context.Context, user *models.User, tx *models.Transaction) error {
	return s.repo.Atomic(ctx, func(repo Repository) error {
		if err := repo.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if tx == nil {
			return nil
		}
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
}

func (s *Service) newTransaction(userID string, typ models.TransactionType, amount decimal.Decimal, status models.TransactionStatus, details string, at time.Time) *models.Transaction {
	return &models.Transaction{
		ID:        s.newID(),
		UserID:    userID,
		Type:      typ,
		Amount:    amount,
		Status:    status,
		CreatedAt: at,
		Details:   details,
	}
}

// rejected counts precondition failures; storage errors are not counted.
func (s *Service) rejected(op string, err error) error {
	if isDomainError(err) {
		metrics.RejectedOperationsTotal.WithLabelValues(op).Inc()
		s.logger.Debugf("%s rejected: %v", op, err)
	}
	return err
}

var domainErrors = []error{
	ErrNotFound, ErrAlreadyHigherOrEqualTier, ErrInsufficientBalance, ErrBelowMinimum,
	ErrInvalidPin, ErrNoActiveMembership, ErrCooldownActive, ErrUserBlocked,
	ErrInvalidAmount, ErrInvalidMethod, ErrInvalidInput, ErrAlreadyResolved,
	ErrInvalidTransition, ErrPhoneTaken, ErrAlreadyRegistered, ErrForbidden,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func userKey(id string) string { return "user:" + id }

// keyedMutex hands out one mutex per key and forgets it once nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// newValidator teaches the validator to compare decimals as numbers, so tags
// like gt=0 work on money fields.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (s *Service) validateStruct(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
