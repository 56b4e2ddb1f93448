package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/utils"
)

func parseAmount(text string) (decimal.Decimal, bool) {
	text = strings.NewReplacer(",", "", "৳", "", " ", "").Replace(text)
	amount, err := decimal.NewFromString(text)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

func (b *Bot) handleWallet(_ context.Context, chatID int64, user *models.User) {
	settings := b.service.Settings()
	msg := fmt.Sprintf(
		"💼 Total balance: <b>%s</b>\n"+
			"💵 Withdrawable: <b>%s</b>\n\n"+
			"Minimum deposit: %s\n"+
			"Minimum withdrawal: %s\n\n"+
			"/deposit to add funds, /withdraw to cash out, /pin to change your withdraw PIN.",
		utils.FormatCurrency(user.TotalBalance),
		utils.FormatCurrency(user.WithdrawableBalance),
		utils.FormatCurrency(b.service.MinDeposit()),
		utils.FormatCurrency(settings.MinWithdrawal),
	)
	b.sendMessage(chatID, msg, GetMainMenu(user.IsAdmin))
}

// --- deposit ---

func (b *Bot) handleDepositStart(_ context.Context, chatID int64, _ *models.User) {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(service.PaymentMethods))
	for _, method := range service.PaymentMethods {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strings.ToUpper(method[:1])+method[1:], "dep_method:"+method))
	}
	b.sendMessage(chatID, "Choose a payment method:", tgbotapi.NewInlineKeyboardMarkup(row))
}

func (b *Bot) handleDepositMethodCallback(_ context.Context, callback *tgbotapi.CallbackQuery, user *models.User) {
	chatID := callback.Message.Chat.ID
	method := strings.TrimPrefix(callback.Data, "dep_method:")
	b.answerCallback(callback.ID, "")

	b.resetConversation(chatID)
	b.setUserActionData(chatID, method)
	b.setState(chatID, stateAwaitingDepositAmount)
	b.sendMessage(chatID, fmt.Sprintf(
		"Send money via <b>%s</b>, then enter the amount you sent (minimum %s):",
		esc(method), utils.FormatCurrency(b.service.MinDeposit()),
	), tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleDepositAmount(ctx context.Context, chatID int64, user *models.User, text string) {
	amount, ok := parseAmount(text)
	if !ok {
		b.sendMessage(chatID, msgInvalidInput, nil)
		return
	}

	method := b.getUserActionData(chatID)
	b.resetConversation(chatID)

	tx, err := b.service.RequestDeposit(ctx, user.ID, amount, method)
	if err != nil {
		b.replyError(chatID, "request deposit", err, GetMainMenu(user.IsAdmin))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf(
		"✅ Deposit request of %s via %s submitted. It will be credited after admin approval.",
		utils.FormatCurrency(tx.Amount), esc(method),
	), GetMainMenu(user.IsAdmin))
	b.notifyAdminAboutRequest(user, tx)
}

// --- withdrawal ---

func (b *Bot) handleWithdrawStart(_ context.Context, chatID int64, user *models.User) {
	if !user.WithdrawableBalance.IsPositive() {
		b.sendMessage(chatID, "❌ You have no withdrawable balance.", GetMainMenu(user.IsAdmin))
		return
	}

	b.setState(chatID, stateAwaitingWithdrawAmount)
	b.sendMessage(chatID, fmt.Sprintf(
		"💵 Withdrawable: %s\nMinimum withdrawal: %s\n\nEnter the amount to withdraw:",
		utils.FormatCurrency(user.WithdrawableBalance),
		utils.FormatCurrency(b.service.Settings().MinWithdrawal),
	), tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleWithdrawAmount(_ context.Context, chatID int64, user *models.User, text string) {
	amount, ok := parseAmount(text)
	if !ok {
		b.sendMessage(chatID, msgInvalidInput, nil)
		return
	}

	b.setUserActionData(chatID, amount.String())
	b.setState(chatID, stateAwaitingWithdrawPin)
	b.sendMessage(chatID, "🔐 Enter your withdraw PIN:", nil)
}

func (b *Bot) handleWithdrawPin(ctx context.Context, chatID int64, user *models.User, pin string) {
	amount, err := decimal.NewFromString(b.getUserActionData(chatID))
	b.resetConversation(chatID)
	if err != nil {
		b.logger.Errorf("Lost withdrawal amount for chat %d: %v", chatID, err)
		b.sendMessage(chatID, msgInternalError, GetMainMenu(user.IsAdmin))
		return
	}

	updated, tx, err := b.service.RequestWithdrawal(ctx, user.ID, amount, pin)
	if err != nil {
		b.replyError(chatID, "request withdrawal", err, GetMainMenu(user.IsAdmin))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf(
		"✅ Withdrawal of %s requested. It usually arrives within 12-24 hours.\n💵 Withdrawable: %s",
		utils.FormatCurrency(tx.Amount),
		utils.FormatCurrency(updated.WithdrawableBalance),
	), GetMainMenu(user.IsAdmin))
	b.notifyAdminAboutRequest(updated, tx)
}

func (b *Bot) handleNewPin(ctx context.Context, chatID int64, user *models.User, pin string) {
	b.resetConversation(chatID)
	if err := b.service.SetWithdrawPin(ctx, user.ID, strings.TrimSpace(pin)); err != nil {
		b.replyError(chatID, "set pin", err, GetMainMenu(user.IsAdmin))
		return
	}
	b.sendMessage(chatID, "✅ Withdraw PIN updated.", GetMainMenu(user.IsAdmin))
}
