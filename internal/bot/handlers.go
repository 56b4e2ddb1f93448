package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/solimsadek-max/NCP/internal/metrics"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/utils"
)

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		metrics.BotUpdatesTotal.WithLabelValues("callback").Inc()
		if !b.limiters.allow(update.CallbackQuery.From.ID) {
			metrics.BotRateLimitedTotal.Inc()
			b.answerCallback(update.CallbackQuery.ID, msgSlowDown)
			return
		}
		b.handleCallbackQuery(ctx, update.CallbackQuery)

	case update.Message != nil && update.Message.From != nil:
		metrics.BotUpdatesTotal.WithLabelValues("message").Inc()
		if !b.limiters.allow(update.Message.From.ID) {
			metrics.BotRateLimitedTotal.Inc()
			b.logger.Debugf("Rate limited user %d", update.Message.From.ID)
			return
		}
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.handleStart(ctx, msg)
			return
		case "register":
			b.handleRegister(ctx, msg)
			return
		case "login":
			b.handleLogin(ctx, msg)
			return
		}
	}

	b.withUserCheck(b.handleUserMessage)(ctx, msg)
}

func (b *Bot) handleUserMessage(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	b.logger.Infof("Processing message from user %s: %q", user.ID, msg.Command())

	if msg.IsCommand() {
		b.resetConversation(chatID)
		b.handleCommand(ctx, msg, user)
		return
	}

	switch b.getUserState(chatID) {
	case stateAwaitingDepositAmount:
		b.handleDepositAmount(ctx, chatID, user, text)
		return
	case stateAwaitingWithdrawAmount:
		b.handleWithdrawAmount(ctx, chatID, user, text)
		return
	case stateAwaitingWithdrawPin:
		b.deleteMessage(chatID, msg.MessageID)
		b.handleWithdrawPin(ctx, chatID, user, text)
		return
	case stateAwaitingNewPin:
		b.deleteMessage(chatID, msg.MessageID)
		b.handleNewPin(ctx, chatID, user, text)
		return
	case stateAwaitingSupport:
		b.handleSupportMessage(ctx, chatID, user, text)
		return
	}

	switch text {
	case btnVIP:
		b.handleVIPList(ctx, chatID, user)
	case btnTask:
		b.handleTask(ctx, chatID, user)
	case btnWallet:
		b.handleWallet(ctx, chatID, user)
	case btnHistory:
		b.handleHistory(ctx, chatID, user)
	case btnSupport:
		b.handleSupportStart(ctx, chatID, user)
	case btnProfile:
		b.handleProfile(ctx, chatID, user)
	case btnAdmin:
		b.handleAdminMenu(ctx, chatID, user)
	default:
		b.sendMessage(chatID, msgUnknown, GetMainMenu(user.IsAdmin))
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "vip":
		b.handleVIPList(ctx, chatID, user)
	case "task":
		b.handleTask(ctx, chatID, user)
	case "wallet":
		b.handleWallet(ctx, chatID, user)
	case "deposit":
		b.handleDepositStart(ctx, chatID, user)
	case "withdraw":
		b.handleWithdrawStart(ctx, chatID, user)
	case "pin":
		b.setState(chatID, stateAwaitingNewPin)
		b.sendMessage(chatID, "🔐 Send your new 4-6 digit withdraw PIN:", tgbotapi.NewRemoveKeyboard(true))
	case "history":
		b.handleHistory(ctx, chatID, user)
	case "support":
		b.handleSupportStart(ctx, chatID, user)
	case "tickets":
		b.handleTickets(ctx, chatID, user)
	case "profile":
		b.handleProfile(ctx, chatID, user)
	case "cancel":
		b.sendMessage(chatID, msgCancelled, GetMainMenu(user.IsAdmin))
	case "logout":
		b.handleLogout(ctx, chatID, user)
	case "admin":
		b.handleAdminMenu(ctx, chatID, user)
	case "minwithdraw":
		b.handleSetMinWithdrawal(ctx, chatID, user, args)
	case "setvip":
		b.handleSetVIP(ctx, chatID, user, args)
	case "block", "unblock":
		b.handleBlock(ctx, chatID, user, args, msg.Command() == "block")
	default:
		b.sendMessage(chatID, msgUnknown, GetMainMenu(user.IsAdmin))
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user, err := b.service.GetUserByTelegramID(ctx, msg.From.ID)
	if err != nil {
		b.logger.Errorf("Failed to get user: %v", err)
		b.sendMessage(chatID, msgInternalError, nil)
		return
	}

	if user == nil {
		b.sendMessage(chatID, "👋 Welcome to <b>NCP Members</b>!\n\n"+msgNotLinked, nil)
		return
	}

	b.sendMessage(chatID, "👋 Welcome back!\n\n"+formatProfile(user, b.service.Now()), GetMainMenu(user.IsAdmin))
}

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.sendMessage(chatID, "Usage: <code>/register &lt;name&gt; &lt;phone&gt; [referral code]</code>", nil)
		return
	}

	tgID := msg.From.ID
	req := service.RegisterRequest{
		Username:   args[0],
		Phone:      args[1],
		TelegramID: &tgID,
	}
	if len(args) > 2 {
		req.ReferralCode = args[2]
	}

	user, err := b.service.Register(ctx, req)
	if err != nil {
		b.replyError(chatID, "register", err, nil)
		return
	}

	b.sendMessage(chatID, "✅ Account created!\n\n"+formatProfile(user, b.service.Now()), GetMainMenu(user.IsAdmin))
}

func (b *Bot) handleLogin(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	phone := strings.TrimSpace(msg.CommandArguments())
	if phone == "" {
		b.sendMessage(chatID, "Usage: <code>/login &lt;phone&gt;</code>", nil)
		return
	}

	tgID := msg.From.ID
	user, err := b.service.Login(ctx, phone, &tgID)
	if err != nil {
		b.replyError(chatID, "login", err, nil)
		return
	}

	b.sendMessage(chatID, "✅ Logged in.\n\n"+formatProfile(user, b.service.Now()), GetMainMenu(user.IsAdmin))
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64, user *models.User) {
	if err := b.service.Logout(ctx, user.ID); err != nil {
		b.replyError(chatID, "logout", err, nil)
		return
	}
	b.sendMessage(chatID, "👋 Logged out.", tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleProfile(_ context.Context, chatID int64, user *models.User) {
	b.sendMessage(chatID, formatProfile(user, b.service.Now()), GetMainMenu(user.IsAdmin))
}

func (b *Bot) handleVIPList(_ context.Context, chatID int64, user *models.User) {
	now := b.service.Now()
	for _, tier := range b.service.Catalog().List() {
		var markup interface{}
		switch {
		case service.MembershipActive(user, now) && *user.ActiveVIP == tier.Level:
			b.sendMessage(chatID, formatTier(tier)+"\n\n✅ Your current level", nil)
			continue
		case !service.MembershipActive(user, now) || *user.ActiveVIP < tier.Level:
			markup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🛒 Buy "+tier.Name, fmt.Sprintf("buy_vip:%d", tier.Level)),
			))
		}
		b.sendMessage(chatID, formatTier(tier), markup)
	}
}

func (b *Bot) handleBuyVIPCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User) {
	level, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "buy_vip:"))
	if err != nil {
		b.logger.Errorf("Invalid vip level in callback: %s", callback.Data)
		b.answerCallback(callback.ID, msgInternalError)
		return
	}

	updated, _, err := b.service.PurchaseVIP(ctx, user.ID, level)
	if err != nil {
		b.answerCallback(callback.ID, "")
		b.replyError(callback.Message.Chat.ID, "purchase", err, GetMainMenu(user.IsAdmin))
		return
	}

	b.answerCallback(callback.ID, "✅")
	b.sendMessage(callback.Message.Chat.ID, fmt.Sprintf(
		"🎉 VIP %s activated until %s.\nDo your daily task to earn profit!",
		utils.ToBanglaNum(strconv.Itoa(level)),
		formatDate(*updated.VIPExpiryDate),
	), GetMainMenu(user.IsAdmin))
}

func (b *Bot) handleTask(ctx context.Context, chatID int64, user *models.User) {
	updated, tx, err := b.service.CompleteTask(ctx, user.ID)
	if errors.Is(err, service.ErrCooldownActive) {
		left, _ := b.service.TaskCooldown(user)
		b.sendMessage(chatID, "⏳ Next task available in "+utils.FormatCountdown(left), GetMainMenu(user.IsAdmin))
		return
	}
	if err != nil {
		b.replyError(chatID, "task", err, GetMainMenu(user.IsAdmin))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf(
		"✅ Task completed! You earned %s.\n💵 Withdrawable: %s",
		utils.FormatCurrency(tx.Amount),
		utils.FormatCurrency(updated.WithdrawableBalance),
	), GetMainMenu(user.IsAdmin))
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, user *models.User) {
	txs, err := b.service.ListTransactions(ctx, user.ID)
	if err != nil {
		b.replyError(chatID, "history", err, nil)
		return
	}
	if len(txs) == 0 {
		b.sendMessage(chatID, "ℹ️ No transactions yet.", GetMainMenu(user.IsAdmin))
		return
	}

	const limit = 10
	if len(txs) > limit {
		txs = txs[:limit]
	}

	var sb strings.Builder
	sb.WriteString("📜 <b>Recent transactions</b>\n\n")
	for _, tx := range txs {
		sb.WriteString(formatTransaction(tx))
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, sb.String(), GetMainMenu(user.IsAdmin))
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	user, err := b.service.GetUserByTelegramID(ctx, callback.From.ID)
	if err != nil || user == nil || user.IsBlocked {
		b.answerCallback(callback.ID, msgNotLinkedShort)
		return
	}

	data := callback.Data
	switch {
	case strings.HasPrefix(data, "buy_vip:"):
		b.handleBuyVIPCallback(ctx, callback, user)
	case strings.HasPrefix(data, "dep_method:"):
		b.handleDepositMethodCallback(ctx, callback, user)
	case strings.HasPrefix(data, "adm_"):
		if !user.IsAdmin {
			b.answerCallback(callback.ID, msgAdminOnly)
			return
		}
		b.handleAdminCallback(ctx, callback, user)
	default:
		b.answerCallback(callback.ID, "")
	}
}

// replyError reports domain errors to the user and logs anything else.
func (b *Bot) replyError(chatID int64, op string, err error, markup interface{}) {
	text := errorText(err)
	if text == msgInternalError {
		b.logger.Errorf("Failed to %s: %v", op, err)
	}
	b.sendMessage(chatID, text, markup)
}
