package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/utils"
)

func (b *Bot) notifyAdminAboutRequest(user *models.User, tx *models.Transaction) {
	if b.config.AdminChatID == 0 {
		return
	}

	text := fmt.Sprintf(
		"🔔 <b>New %s request</b>\n\n"+
			"👤 %s (%s)\n"+
			"💰 %s\n"+
			"📝 %s\n"+
			"🆔 <code>%s</code>",
		tx.Type, esc(user.Username), esc(user.Phone), utils.FormatCurrency(tx.Amount), esc(tx.Details), tx.ID,
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("adm_ask:%s:%s", models.StatusApproved, tx.ID)),
		tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("adm_ask:%s:%s", models.StatusRejected, tx.ID)),
	))
	b.sendMessage(b.config.AdminChatID, text, keyboard)
}

func (b *Bot) notifyAdminAboutToken(token *models.SupportToken) {
	if b.config.AdminChatID == 0 {
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔧 In progress", fmt.Sprintf("adm_tkt:%s:%s", models.SupportInProgress, token.ID)),
		tgbotapi.NewInlineKeyboardButtonData("✅ Resolved", fmt.Sprintf("adm_tkt:%s:%s", models.SupportResolved, token.ID)),
	))
	b.sendMessage(b.config.AdminChatID, "🎫 <b>New ticket</b> from "+esc(token.Username)+"\n\n"+formatToken(token), keyboard)
}

func (b *Bot) notifyUserAboutResolution(ctx context.Context, tx *models.Transaction) {
	owner, err := b.service.GetUser(ctx, tx.UserID)
	if err != nil || owner == nil || owner.TelegramID == nil {
		b.logger.Warnf("Cannot notify owner of transaction %s: %v", tx.ID, err)
		return
	}

	var text string
	switch {
	case tx.Type == models.TransactionDeposit && tx.Status == models.StatusApproved:
		text = fmt.Sprintf("✅ Your deposit of %s was approved.\n💼 Balance: %s",
			utils.FormatCurrency(tx.Amount), utils.FormatCurrency(owner.TotalBalance))
	case tx.Type == models.TransactionDeposit:
		text = fmt.Sprintf("❌ Your deposit of %s was rejected. Contact support if you think this is a mistake.",
			utils.FormatCurrency(tx.Amount))
	case tx.Status == models.StatusApproved:
		text = fmt.Sprintf("✅ Your withdrawal of %s was paid out.", utils.FormatCurrency(tx.Amount))
	default:
		text = fmt.Sprintf("❌ Your withdrawal of %s was rejected and returned to your balance.\n💵 Withdrawable: %s",
			utils.FormatCurrency(tx.Amount), utils.FormatCurrency(owner.WithdrawableBalance))
	}
	b.sendMessage(*owner.TelegramID, text, nil)
}

func (b *Bot) notifyUserAboutToken(ctx context.Context, token *models.SupportToken) {
	owner, err := b.service.GetUser(ctx, token.UserID)
	if err != nil || owner == nil || owner.TelegramID == nil {
		b.logger.Warnf("Cannot notify owner of ticket %s: %v", token.ID, err)
		return
	}
	b.sendMessage(*owner.TelegramID, fmt.Sprintf("🎫 Ticket <code>%s</code> is now %s.", token.ID, token.Status), nil)
}

// NotifyExpired tells a user their membership lapsed. It is called while the
// engine holds the user's lock, so the message is sent in the background.
func (b *Bot) NotifyExpired(user *models.User, level int, expiredAt time.Time) {
	if user.TelegramID == nil {
		return
	}
	chatID := *user.TelegramID
	text := fmt.Sprintf("⌛ Your VIP %s membership expired on %s. Buy a level again to keep earning.",
		utils.ToBanglaNum(fmt.Sprint(level)), formatDate(expiredAt))
	go b.sendMessage(chatID, text, nil)
}
