package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/solimsadek-max/NCP/internal/models"
	"golang.org/x/time/rate"
)

// chatLimiters keeps one token bucket per Telegram user.
type chatLimiters struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newChatLimiters(limit rate.Limit, burst int) *chatLimiters {
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &chatLimiters{
		limiters: make(map[int64]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *chatLimiters) allow(id int64) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[id]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[id] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// withUserCheck resolves the account linked to the chat and stops unlinked or
// blocked users before the handler runs.
func (b *Bot) withUserCheck(handler func(context.Context, *tgbotapi.Message, *models.User)) func(context.Context, *tgbotapi.Message) {
	return func(ctx context.Context, msg *tgbotapi.Message) {
		chatID := msg.Chat.ID

		user, err := b.service.GetUserByTelegramID(ctx, msg.From.ID)
		if err != nil {
			b.logger.Errorf("Failed to get user: %v", err)
			b.sendMessage(chatID, msgInternalError, nil)
			return
		}

		if user == nil {
			b.sendMessage(chatID, msgNotLinked, tgbotapi.NewRemoveKeyboard(true))
			return
		}

		if user.IsBlocked {
			b.sendMessage(chatID, msgBlocked, tgbotapi.NewRemoveKeyboard(true))
			return
		}

		handler(ctx, msg, user)
	}
}
