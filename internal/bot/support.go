package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
)

func (b *Bot) handleSupportStart(_ context.Context, chatID int64, _ *models.User) {
	b.setState(chatID, stateAwaitingSupport)
	b.sendMessage(chatID, "🆘 Describe your problem.\nThe first line is the subject, the rest is the message.", tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleSupportMessage(ctx context.Context, chatID int64, user *models.User, text string) {
	b.resetConversation(chatID)

	subject, message, found := strings.Cut(text, "\n")
	if !found {
		message = subject
	}

	token, err := b.service.OpenToken(ctx, user.ID, service.SupportRequest{Subject: subject, Message: message})
	if err != nil {
		b.replyError(chatID, "open support token", err, GetMainMenu(user.IsAdmin))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ Ticket <code>%s</code> opened. We will get back to you soon.", token.ID), GetMainMenu(user.IsAdmin))
	b.notifyAdminAboutToken(token)
}

func (b *Bot) handleTickets(ctx context.Context, chatID int64, user *models.User) {
	tokens, err := b.service.ListSupportTokens(ctx, user.ID)
	if err != nil {
		b.replyError(chatID, "list tickets", err, nil)
		return
	}
	if len(tokens) == 0 {
		b.sendMessage(chatID, "ℹ️ You have no support tickets.", GetMainMenu(user.IsAdmin))
		return
	}

	var sb strings.Builder
	for _, token := range tokens {
		sb.WriteString(formatToken(token))
		sb.WriteString("\n\n")
	}
	b.sendMessage(chatID, sb.String(), GetMainMenu(user.IsAdmin))
}
