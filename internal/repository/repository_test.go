package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/db"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/utils"
)

// newTestRepository connects to the database named by NCP_TEST_DB_URL and
// skips the test when it is unset.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("NCP_TEST_DB_URL")
	if url == "" {
		t.Skip("NCP_TEST_DB_URL not set")
	}

	logger := utils.NewDiscardLogger()
	conn, err := db.ConnectDb(url, logger)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := db.Migrate(conn, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(conn, logger)
}

func TestRepository_AtomicRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{ID: uuid.NewString(), Phone: uuid.NewString()[:15], CreatedAt: time.Now()}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	boom := errors.New("boom")
	txID := uuid.NewString()
	err := repo.Atomic(ctx, func(r service.Repository) error {
		changed := *user
		changed.WithdrawableBalance = decimal.NewFromInt(999)
		if err := r.UpdateUser(ctx, &changed); err != nil {
			return err
		}
		if err := r.CreateTransaction(ctx, &models.Transaction{ID: txID, UserID: user.ID, Type: models.TransactionDeposit, Status: models.StatusPending, Amount: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := repo.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.WithdrawableBalance.IsZero() {
		t.Fatalf("update should have rolled back, got %s", got.WithdrawableBalance)
	}
	if tx, _ := repo.GetTransaction(ctx, txID); tx != nil {
		t.Fatalf("transaction should have rolled back")
	}
}

func TestRepository_ConditionalStatusUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx := &models.Transaction{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		Type:      models.TransactionWithdraw,
		Amount:    decimal.NewFromInt(600),
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := repo.UpdateTransactionStatus(ctx, tx.ID, models.StatusPending, models.StatusRejected); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.UpdateTransactionStatus(ctx, tx.ID, models.StatusPending, models.StatusApproved); !errors.Is(err, service.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestRepository_AppConfigUpsert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cfg := &models.AppConfig{MinWithdrawal: decimal.NewFromInt(500), Version: 1}
	if err := repo.SaveAppConfig(ctx, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	cfg.MinWithdrawal = decimal.NewFromInt(750)
	cfg.Version = 2
	if err := repo.SaveAppConfig(ctx, cfg); err != nil {
		t.Fatalf("update config: %v", err)
	}

	got, err := repo.GetAppConfig(ctx)
	if err != nil || got == nil {
		t.Fatalf("get config: %v", err)
	}
	if !got.MinWithdrawal.Equal(decimal.NewFromInt(750)) || got.Version != 2 {
		t.Fatalf("unexpected config %+v", got)
	}
}
