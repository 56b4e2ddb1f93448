package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/utils"
)

const keyPrefix = "ncp:"

func userKey(id string) string { return keyPrefix + "user:" + id }
func userPhoneKey(phone string) string { return keyPrefix + "user:phone:" + phone }
func userTelegramKey(id int64) string { return keyPrefix + "user:tg:" + strconv.FormatInt(id, 10) }
func userTxsKey(id string) string { return keyPrefix + "user:" + id + ":txs" }
func userTicketsKey(id string) string { return keyPrefix + "user:" + id + ":tickets" }
func txKey(id string) string { return keyPrefix + "tx:" + id }
func vipKey(level int) string { return keyPrefix + "vip:" + strconv.Itoa(level) }
func ticketKey(id string) string { return keyPrefix + "ticket:" + id }
func pendingTxsKey() string { return keyPrefix + "txs:pending" }

const (
	usersKey   = keyPrefix + "users"
	txsKey     = keyPrefix + "txs"
	vipsKey    = keyPrefix + "vips"
	ticketsKey = keyPrefix + "tickets"
	configKey  = keyPrefix + "config"
)

// Store keeps every record as a versioned JSON blob in redis. Reads always go
// to the client; inside Atomic, writes are queued on a MULTI/EXEC pipeline.
type Store struct {
	rdb    *redis.Client
	w      redis.Cmdable
	inTx   bool
	logger *utils.Logger
}

var _ service.Repository = (*Store)(nil)

func NewStore(rdb *redis.Client, logger *utils.Logger) *Store {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Store{rdb: rdb, w: rdb, logger: logger}
}

func (s *Store) Atomic(ctx context.Context, fn func(repo service.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(&Store{rdb: s.rdb, w: pipe, inTx: true, logger: s.logger})
	})
	return err
}

// load fetches and decodes one blob, rewriting it when it had to be migrated.
// It returns false when the key does not exist.
func (s *Store) load(ctx context.Context, key, kind string, v interface{}) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	migrated, err := decode(kind, raw, v)
	if err != nil {
		return false, err
	}

	if migrated {
		if err := s.save(ctx, key, kind, v); err != nil {
			s.logger.Warnf("Failed to rewrite migrated %s %s: %v", kind, key, err)
		} else {
			s.logger.Infof("Migrated %s %s to schema %d", kind, key, SchemaVersion)
		}
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key, kind string, v interface{}) error {
	blob, err := encode(kind, v)
	if err != nil {
		return err
	}
	return s.w.Set(ctx, key, blob, 0).Err()
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	ok, err := s.load(ctx, userKey(id), kindUser, &user)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

func (s *Store) lookupID(ctx context.Context, key string) (string, error) {
	id, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return id, nil
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	id, err := s.lookupID(ctx, userPhoneKey(phone))
	if err != nil || id == "" {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	id, err := s.lookupID(ctx, userTelegramKey(telegramID))
	if err != nil || id == "" {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	ok, err := s.rdb.SetNX(ctx, userPhoneKey(user.Phone), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("reserve phone: %w", err)
	}
	if !ok {
		return service.ErrPhoneTaken
	}

	err = s.Atomic(ctx, func(repo service.Repository) error {
		st := repo.(*Store)
		if err := st.save(ctx, userKey(user.ID), kindUser, user); err != nil {
			return err
		}
		if user.TelegramID != nil {
			st.w.Set(ctx, userTelegramKey(*user.TelegramID), user.ID, 0)
		}
		st.w.SAdd(ctx, usersKey, user.ID)
		return nil
	})
	if err != nil {
		s.rdb.Del(ctx, userPhoneKey(user.Phone))
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	old, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("update user %s: %w", user.ID, service.ErrNotFound)
	}

	if err := s.save(ctx, userKey(user.ID), kindUser, user); err != nil {
		return err
	}

	if old.Phone != user.Phone {
		s.w.Del(ctx, userPhoneKey(old.Phone))
		s.w.Set(ctx, userPhoneKey(user.Phone), user.ID, 0)
	}
	if old.TelegramID != nil && (user.TelegramID == nil || *old.TelegramID != *user.TelegramID) {
		s.w.Del(ctx, userTelegramKey(*old.TelegramID))
	}
	if user.TelegramID != nil {
		s.w.Set(ctx, userTelegramKey(*user.TelegramID), user.ID, 0)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	ids, err := s.rdb.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			users = append(users, user)
		}
	}
	return users, nil
}

// Transactions

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	score := float64(tx.CreatedAt.UnixNano())
	return s.Atomic(ctx, func(repo service.Repository) error {
		st := repo.(*Store)
		if err := st.save(ctx, txKey(tx.ID), kindTx, tx); err != nil {
			return err
		}
		st.w.ZAdd(ctx, txsKey, redis.Z{Score: score, Member: tx.ID})
		st.w.ZAdd(ctx, userTxsKey(tx.UserID), redis.Z{Score: score, Member: tx.ID})
		if tx.Status == models.StatusPending {
			st.w.ZAdd(ctx, pendingTxsKey(), redis.Z{Score: score, Member: tx.ID})
		}
		return nil
	})
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	ok, err := s.load(ctx, txKey(id), kindTx, &tx)
	if err != nil || !ok {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id string, from, to models.TransactionStatus) error {
	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return service.ErrNotFound
	}
	if tx.Status != from {
		return service.ErrAlreadyResolved
	}

	tx.Status = to
	return s.Atomic(ctx, func(repo service.Repository) error {
		st := repo.(*Store)
		if err := st.save(ctx, txKey(id), kindTx, tx); err != nil {
			return err
		}
		if to != models.StatusPending {
			st.w.ZRem(ctx, pendingTxsKey(), id)
		}
		return nil
	})
}

func (s *Store) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	index := txsKey
	switch {
	case filter.UserID != "":
		index = userTxsKey(filter.UserID)
	case filter.Status == models.StatusPending:
		index = pendingTxsKey()
	}

	ids, err := s.rdb.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]*models.Transaction, 0, len(ids))
	for _, id := range ids {
		tx, err := s.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		if tx != nil && filter.Matches(tx) {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// VIP levels

func (s *Store) ListVIPLevels(ctx context.Context) ([]models.VIPLevel, error) {
	members, err := s.rdb.SMembers(ctx, vipsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list vip levels: %w", err)
	}

	levels := make([]models.VIPLevel, 0, len(members))
	for _, member := range members {
		n, err := strconv.Atoi(member)
		if err != nil {
			return nil, fmt.Errorf("bad vip level %q: %w", member, err)
		}

		var level models.VIPLevel
		ok, err := s.load(ctx, vipKey(n), kindVIP, &level)
		if err != nil {
			return nil, err
		}
		if ok {
			levels = append(levels, level)
		}
	}
	return levels, nil
}

func (s *Store) SaveVIPLevel(ctx context.Context, level *models.VIPLevel) error {
	return s.Atomic(ctx, func(repo service.Repository) error {
		st := repo.(*Store)
		if err := st.save(ctx, vipKey(level.Level), kindVIP, level); err != nil {
			return err
		}
		st.w.SAdd(ctx, vipsKey, strconv.Itoa(level.Level))
		return nil
	})
}

// App config

func (s *Store) GetAppConfig(ctx context.Context) (*models.AppConfig, error) {
	var cfg models.AppConfig
	ok, err := s.load(ctx, configKey, kindConfig, &cfg)
	if err != nil || !ok {
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) SaveAppConfig(ctx context.Context, cfg *models.AppConfig) error {
	return s.save(ctx, configKey, kindConfig, cfg)
}

// Support tokens

func (s *Store) CreateSupportToken(ctx context.Context, token *models.SupportToken) error {
	score := float64(token.CreatedAt.UnixNano())
	return s.Atomic(ctx, func(repo service.Repository) error {
		st := repo.(*Store)
		if err := st.save(ctx, ticketKey(token.ID), kindToken, token); err != nil {
			return err
		}
		st.w.ZAdd(ctx, ticketsKey, redis.Z{Score: score, Member: token.ID})
		st.w.ZAdd(ctx, userTicketsKey(token.UserID), redis.Z{Score: score, Member: token.ID})
		return nil
	})
}

func (s *Store) GetSupportToken(ctx context.Context, id string) (*models.SupportToken, error) {
	var token models.SupportToken
	ok, err := s.load(ctx, ticketKey(id), kindToken, &token)
	if err != nil || !ok {
		return nil, err
	}
	return &token, nil
}

func (s *Store) UpdateSupportToken(ctx context.Context, token *models.SupportToken) error {
	return s.save(ctx, ticketKey(token.ID), kindToken, token)
}

func (s *Store) ListSupportTokens(ctx context.Context, userID string) ([]*models.SupportToken, error) {
	index := ticketsKey
	if userID != "" {
		index = userTicketsKey(userID)
	}

	ids, err := s.rdb.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list support tokens: %w", err)
	}

	tokens := make([]*models.SupportToken, 0, len(ids))
	for _, id := range ids {
		token, err := s.GetSupportToken(ctx, id)
		if err != nil {
			return nil, err
		}
		if token != nil {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}
