package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/solimsadek-max/NCP/config"
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/utils"
	"golang.org/x/time/rate"
)

// Sender is the part of the Telegram client the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api        Sender
	service    *service.Service
	logger     *utils.Logger
	config     *config.Config
	userStates map[int64]string
	actionData map[int64]string
	stateMutex *sync.Mutex
	limiters   *chatLimiters
}

func NewBot(
	api Sender,
	svc *service.Service,
	logger *utils.Logger,
	cfg *config.Config,
) *Bot {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Bot{
		api:        api,
		service:    svc,
		logger:     logger,
		config:     cfg,
		userStates: make(map[int64]string),
		actionData: make(map[int64]string),
		stateMutex: &sync.Mutex{},
		limiters:   newChatLimiters(rate.Limit(cfg.BotRateLimit), cfg.BotRateBurst),
	}
}

// Start consumes updates from the long-polling client until ctx is done.
func (b *Bot) Start(ctx context.Context, client *tgbotapi.BotAPI) {
	b.logger.Info("Starting bot...")
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := client.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			client.StopReceivingUpdates()
			b.logger.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.logger.Debugf("Received update: %d", update.UpdateID)
			b.HandleUpdate(ctx, update)
		}
	}
}

const (
	btnVIP     = "💎 VIP"
	btnTask    = "✅ Daily Task"
	btnWallet  = "💰 Wallet"
	btnHistory = "📜 History"
	btnSupport = "🆘 Support"
	btnProfile = "👤 Profile"
	btnAdmin   = "🛠 Admin"
)

func GetMainMenu(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnVIP),
			tgbotapi.NewKeyboardButton(btnTask),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnWallet),
			tgbotapi.NewKeyboardButton(btnHistory),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSupport),
			tgbotapi.NewKeyboardButton(btnProfile),
		),
	}

	if isAdmin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAdmin),
		))
	}

	return tgbotapi.NewReplyKeyboard(rows...)
}
