package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
	"golang.org/x/crypto/bcrypt"
)

func newMiniRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		s.Close()
	}
}

func TestStore_UserIndexes(t *testing.T) {
	ctx := context.Background()
	rdb, cleanup := newMiniRedis(t)
	defer cleanup()
	store := NewStore(rdb, nil)

	tg := int64(777)
	user := &models.User{ID: "u1", Phone: "01700000001", Username: "rahim", TelegramID: &tg, CreatedAt: time.Now()}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	byPhone, err := store.GetUserByPhone(ctx, "01700000001")
	if err != nil || byPhone == nil || byPhone.ID != "u1" {
		t.Fatalf("lookup by phone: %v %+v", err, byPhone)
	}
	byTg, err := store.GetUserByTelegramID(ctx, 777)
	if err != nil || byTg == nil || byTg.ID != "u1" {
		t.Fatalf("lookup by telegram id: %v %+v", err, byTg)
	}

	dup := &models.User{ID: "u2", Phone: "01700000001"}
	if err := store.CreateUser(ctx, dup); !errors.Is(err, service.ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}

	user.TelegramID = nil
	if err := store.UpdateUser(ctx, user); err != nil {
		t.Fatalf("update user: %v", err)
	}
	if got, _ := store.GetUserByTelegramID(ctx, 777); got != nil {
		t.Fatalf("expected telegram index to be removed")
	}

	missing, err := store.GetUser(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing user, got %v %v", missing, err)
	}
}

func TestStore_AtomicDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	rdb, cleanup := newMiniRedis(t)
	defer cleanup()
	store := NewStore(rdb, nil)

	user := &models.User{ID: "u1", Phone: "01700000001", WithdrawableBalance: decimal.NewFromInt(100)}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(repo service.Repository) error {
		changed := *user
		changed.WithdrawableBalance = decimal.Zero
		if err := repo.UpdateUser(ctx, &changed); err != nil {
			return err
		}
		if err := repo.CreateTransaction(ctx, &models.Transaction{ID: "t1", UserID: "u1", Status: models.StatusPending}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := store.GetUser(ctx, "u1")
	if !got.WithdrawableBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance changed despite failed atomic block: %s", got.WithdrawableBalance)
	}
	if tx, _ := store.GetTransaction(ctx, "t1"); tx != nil {
		t.Fatalf("transaction persisted despite failed atomic block")
	}
}

func TestStore_TransactionStatusAndPendingIndex(t *testing.T) {
	ctx := context.Background()
	rdb, cleanup := newMiniRedis(t)
	defer cleanup()
	store := NewStore(rdb, nil)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"t1", "t2"} {
		tx := &models.Transaction{
			ID:        id,
			UserID:    "u1",
			Type:      models.TransactionDeposit,
			Amount:    decimal.NewFromInt(500),
			Status:    models.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	if err := store.UpdateTransactionStatus(ctx, "t1", models.StatusPending, models.StatusApproved); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := store.UpdateTransactionStatus(ctx, "t1", models.StatusPending, models.StatusRejected); !errors.Is(err, service.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	pending, err := store.ListTransactions(ctx, models.TransactionFilter{Status: models.StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "t2" {
		t.Fatalf("expected only t2 pending, got %d", len(pending))
	}

	all, err := store.ListTransactions(ctx, models.TransactionFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("list user transactions: %v", err)
	}
	if len(all) != 2 || all[0].ID != "t1" {
		t.Fatalf("expected both transactions oldest first, got %d", len(all))
	}
}

func TestStore_MigratesLegacyUser(t *testing.T) {
	ctx := context.Background()
	rdb, cleanup := newMiniRedis(t)
	defer cleanup()
	store := NewStore(rdb, nil)

	legacy := map[string]interface{}{
		"id":                     "legacy-1",
		"username":               "karim",
		"phone":                  "01711111111",
		"email":                  "",
		"total_balance":          15000,
		"withdrawable_balance":   15000,
		"active_vip":             1,
		"vip_expiry_date":        nil,
		"referrer_id":            nil,
		"withdraw_pin":           "4321",
		"is_blocked":             false,
		"isAdmin":                true,
		"last_task_completed_at": nil,
		"created_at":             "2025-01-01T00:00:00Z",
	}
	raw, _ := json.Marshal(legacy)
	if err := rdb.Set(ctx, userKey("legacy-1"), raw, 0).Err(); err != nil {
		t.Fatalf("seed legacy user: %v", err)
	}

	user, err := store.GetUser(ctx, "legacy-1")
	if err != nil {
		t.Fatalf("get legacy user: %v", err)
	}
	if !user.IsAdmin {
		t.Fatalf("expected isAdmin to carry over")
	}
	if !user.TotalBalance.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("unexpected balance %s", user.TotalBalance)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.WithdrawPinHash), []byte("4321")); err != nil {
		t.Fatalf("legacy pin not hashed correctly: %v", err)
	}

	stored, _ := rdb.Get(ctx, userKey("legacy-1")).Bytes()
	var env envelope
	if err := json.Unmarshal(stored, &env); err != nil {
		t.Fatalf("decode rewritten blob: %v", err)
	}
	if env.Schema != SchemaVersion || env.Kind != kindUser {
		t.Fatalf("expected blob rewritten at schema %d, got %d/%q", SchemaVersion, env.Schema, env.Kind)
	}
}

func TestDecode_RejectsUnknownSchema(t *testing.T) {
	var cfg models.AppConfig
	if _, err := decode(kindConfig, []byte(`{"schema":9,"kind":"app_config","data":{}}`), &cfg); err == nil {
		t.Fatalf("expected error for unknown schema")
	}
	if _, err := decode(kindConfig, []byte(`{"schema":2,"kind":"user","data":{}}`), &cfg); err == nil {
		t.Fatalf("expected error for mismatched kind")
	}
}

func TestDecode_LegacyAppConfig(t *testing.T) {
	var cfg models.AppConfig
	migrated, err := decode(kindConfig, []byte(`{"minWithdrawal":750}`), &cfg)
	if err != nil {
		t.Fatalf("decode legacy config: %v", err)
	}
	if !migrated || !cfg.MinWithdrawal.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("unexpected legacy config: migrated=%t min=%s", migrated, cfg.MinWithdrawal)
	}
}
