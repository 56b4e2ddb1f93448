package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/config"
	"github.com/solimsadek-max/NCP/internal/kvstore"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
)

const (
	adminTG    int64 = 1
	adminPhone       = "01711111111"
)

type fakeSender struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	callbacks []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks = append(f.callbacks, cb.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// textsTo returns the text of every plain message sent to chatID.
func (f *fakeSender) textsTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok && msg.ChatID == chatID {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (f *fakeSender) last(chatID int64) string {
	texts := f.textsTo(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type testBot struct {
	bot    *Bot
	sender *fakeSender
	svc    *service.Service
	admin  *models.User
	nextID int
}

func newTestBot(t *testing.T, cfg config.Config) *testBot {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	svc, err := service.NewService(context.Background(), kvstore.NewStore(rdb, nil), service.Config{
		MinDeposit:           decimal.NewFromInt(500),
		DefaultMinWithdrawal: decimal.NewFromInt(500),
		DefaultWithdrawPin:   "1234",
		TaskCooldown:         24 * time.Hour,
		AdminPhone:           adminPhone,
	}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	tg := adminTG
	admin, err := svc.Register(context.Background(), service.RegisterRequest{Username: "admin", Phone: adminPhone, TelegramID: &tg})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}

	if cfg.BotRateLimit == 0 {
		cfg.BotRateLimit = 1000
		cfg.BotRateBurst = 1000
	}
	cfg.AdminChatID = adminTG

	sender := &fakeSender{}
	return &testBot{
		bot:    NewBot(sender, svc, nil, &cfg),
		sender: sender,
		svc:    svc,
		admin:  admin,
	}
}

func (tb *testBot) send(from int64, text string) {
	tb.nextID++
	msg := &tgbotapi.Message{
		MessageID: tb.nextID,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		command, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	}
	tb.bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: tb.nextID, Message: msg})
}

func (tb *testBot) press(from int64, data string) {
	tb.nextID++
	tb.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: tb.nextID,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: from},
			Message: &tgbotapi.Message{MessageID: tb.nextID, Chat: &tgbotapi.Chat{ID: from}},
			Data:    data,
		},
	})
}

func (tb *testBot) userByTG(t *testing.T, tg int64) *models.User {
	t.Helper()
	user, err := tb.svc.GetUserByTelegramID(context.Background(), tg)
	if err != nil || user == nil {
		t.Fatalf("user for telegram id %d: %v", tg, err)
	}
	return user
}

func TestBot_RegisterAndProfile(t *testing.T) {
	tb := newTestBot(t, config.Config{})

	tb.send(42, "/register bob 01700000002")
	if got := tb.sender.last(42); !strings.Contains(got, "Account created") {
		t.Fatalf("expected registration reply, got %q", got)
	}

	user := tb.userByTG(t, 42)
	if user.Phone != "01700000002" || user.IsAdmin {
		t.Fatalf("unexpected user %+v", user)
	}

	tb.send(42, btnProfile)
	if got := tb.sender.last(42); !strings.Contains(got, "No active VIP membership") {
		t.Fatalf("expected profile, got %q", got)
	}
}

func TestBot_UnlinkedChatIsAskedToLogIn(t *testing.T) {
	tb := newTestBot(t, config.Config{})

	tb.send(77, btnWallet)
	if got := tb.sender.last(77); got != msgNotLinked {
		t.Fatalf("expected not linked message, got %q", got)
	}

	tb.send(77, "/register eve 123")
	if got := tb.sender.last(77); !strings.Contains(got, "Invalid input") {
		t.Fatalf("expected validation error, got %q", got)
	}
}

func TestBot_TaskRequiresMembership(t *testing.T) {
	tb := newTestBot(t, config.Config{})
	tb.send(42, "/register bob 01700000002")

	tb.send(42, btnTask)
	if got := tb.sender.last(42); got != errorText(service.ErrNoActiveMembership) {
		t.Fatalf("expected membership error, got %q", got)
	}
}

func TestBot_DepositApprovedByAdmin(t *testing.T) {
	tb := newTestBot(t, config.Config{})
	tb.send(42, "/register bob 01700000002")

	tb.send(42, "/deposit")
	tb.press(42, "dep_method:nagad")
	tb.send(42, "1,000")

	if got := tb.sender.last(42); !strings.Contains(got, "Deposit request") {
		t.Fatalf("expected deposit confirmation, got %q", got)
	}
	if got := tb.sender.last(adminTG); !strings.Contains(got, "New DEPOSIT request") {
		t.Fatalf("expected admin notice, got %q", got)
	}

	pending, err := tb.svc.ListPendingTransactions(context.Background(), tb.admin.ID, models.TransactionDeposit)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending deposit, got %d (%v)", len(pending), err)
	}
	if pending[0].Details != "Deposit request via nagad" {
		t.Fatalf("unexpected details %q", pending[0].Details)
	}

	tb.press(adminTG, "adm_tx:APPROVED:"+pending[0].ID)

	user := tb.userByTG(t, 42)
	if !user.TotalBalance.Equal(decimal.NewFromInt(1000)) || !user.WithdrawableBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected balances of 1000, got %s/%s", user.TotalBalance, user.WithdrawableBalance)
	}
	if got := tb.sender.last(42); !strings.Contains(got, "approved") {
		t.Fatalf("expected approval notice, got %q", got)
	}

	tb.press(adminTG, "adm_tx:APPROVED:"+pending[0].ID)
	if cbs := tb.sender.callbacks; cbs[len(cbs)-1] != errorText(service.ErrAlreadyResolved) {
		t.Fatalf("expected already resolved answer, got %q", cbs[len(cbs)-1])
	}
}

func TestBot_DepositBelowMinimum(t *testing.T) {
	tb := newTestBot(t, config.Config{})
	tb.send(42, "/register bob 01700000002")

	tb.press(42, "dep_method:bkash")
	tb.send(42, "100")

	if got := tb.sender.last(42); got != errorText(service.ErrBelowMinimum) {
		t.Fatalf("expected below minimum error, got %q", got)
	}
}

func TestBot_WithdrawWithPin(t *testing.T) {
	tb := newTestBot(t, config.Config{})
	ctx := context.Background()
	tb.send(42, "/register bob 01700000002")
	user := tb.userByTG(t, 42)

	tx, err := tb.svc.RequestDeposit(ctx, user.ID, decimal.NewFromInt(1000), "rocket")
	if err != nil {
		t.Fatalf("request deposit: %v", err)
	}
	if _, err := tb.svc.ResolveTransaction(ctx, tb.admin.ID, tx.ID, models.StatusApproved); err != nil {
		t.Fatalf("approve deposit: %v", err)
	}

	tb.send(42, "/withdraw")
	tb.send(42, "600")
	tb.send(42, "0000")
	if got := tb.sender.last(42); got != errorText(service.ErrInvalidPin) {
		t.Fatalf("expected wrong pin, got %q", got)
	}

	tb.send(42, "/withdraw")
	tb.send(42, "600")
	tb.send(42, "1234")
	if got := tb.sender.last(42); !strings.Contains(got, "Withdrawal of") {
		t.Fatalf("expected withdrawal confirmation, got %q", got)
	}

	user = tb.userByTG(t, 42)
	if !user.WithdrawableBalance.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected 400 withdrawable, got %s", user.WithdrawableBalance)
	}
}

func TestBot_SupportTicketLifecycle(t *testing.T) {
	tb := newTestBot(t, config.Config{})
	tb.send(42, "/register bob 01700000002")

	tb.send(42, btnSupport)
	tb.send(42, "Deposit missing\nI sent 1000 via bkash yesterday")
	if got := tb.sender.last(42); !strings.Contains(got, "TKN-") {
		t.Fatalf("expected ticket id, got %q", got)
	}

	user := tb.userByTG(t, 42)
	tokens, err := tb.svc.ListSupportTokens(context.Background(), user.ID)
	if err != nil || len(tokens) != 1 {
		t.Fatalf("expected one token, got %d (%v)", len(tokens), err)
	}
	if tokens[0].Subject != "Deposit missing" {
		t.Fatalf("unexpected subject %q", tokens[0].Subject)
	}

	tb.press(adminTG, "adm_tkt:RESOLVED:"+tokens[0].ID)
	if got := tb.sender.last(42); !strings.Contains(got, "RESOLVED") {
		t.Fatalf("expected resolution notice, got %q", got)
	}

	tb.press(adminTG, "adm_tkt:IN_PROGRESS:"+tokens[0].ID)
	if cbs := tb.sender.callbacks; cbs[len(cbs)-1] != errorText(service.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %q", cbs[len(cbs)-1])
	}
}

func TestBot_AdminCommandsRequireAdmin(t *testing.T) {
	tb := newTestBot(t, config.Config{})
	tb.send(42, "/register bob 01700000002")

	tb.send(42, "/minwithdraw 100")
	if got := tb.sender.last(42); got != msgAdminOnly {
		t.Fatalf("expected admin only, got %q", got)
	}

	tb.send(adminTG, "/minwithdraw 750")
	if !tb.svc.Settings().MinWithdrawal.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected min withdrawal 750, got %s", tb.svc.Settings().MinWithdrawal)
	}

	tb.send(adminTG, "/block 01700000002")
	tb.send(42, btnWallet)
	if got := tb.sender.last(42); got != msgBlocked {
		t.Fatalf("expected blocked message, got %q", got)
	}
}

func TestBot_RateLimit(t *testing.T) {
	tb := newTestBot(t, config.Config{BotRateLimit: 0.001, BotRateBurst: 1})

	tb.send(42, "/start")
	before := tb.sender.count()
	tb.send(42, "/start")

	if tb.sender.count() != before {
		t.Fatalf("expected second message to be dropped")
	}
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		total, page          int
		start, end, expected int
	}{
		{total: 3, page: 0, start: 0, end: 3, expected: 0},
		{total: 12, page: 1, start: 5, end: 10, expected: 1},
		{total: 12, page: 2, start: 10, end: 12, expected: 2},
		{total: 12, page: 9, start: 0, end: 5, expected: 0},
		{total: 12, page: -1, start: 0, end: 5, expected: 0},
	}

	for _, tt := range tests {
		start, end, page := pageBounds(tt.total, tt.page)
		if start != tt.start || end != tt.end || page != tt.expected {
			t.Errorf("pageBounds(%d, %d) = %d, %d, %d", tt.total, tt.page, start, end, page)
		}
	}
}
