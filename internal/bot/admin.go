package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/utils"
)

const (
	itemsPerPage = 5
	listTickets  = "TICKETS"
)

func (b *Bot) handleAdminMenu(_ context.Context, chatID int64, user *models.User) {
	if !user.IsAdmin {
		b.sendMessage(chatID, msgAdminOnly, GetMainMenu(user.IsAdmin))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬇️ Pending deposits", fmt.Sprintf("adm_list:%s:0", models.TransactionDeposit)),
			tgbotapi.NewInlineKeyboardButtonData("⬆️ Pending withdrawals", fmt.Sprintf("adm_list:%s:0", models.TransactionWithdraw)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎫 Open tickets", "adm_list:"+listTickets+":0"),
		),
	)

	settings := b.service.Settings()
	b.sendMessage(chatID, fmt.Sprintf(
		"🛠 <b>Admin panel</b>\n\n"+
			"Minimum withdrawal: %s (config v%d)\n"+
			"VIP catalog version: %d\n\n"+
			"<code>/minwithdraw &lt;amount&gt;</code>\n"+
			"<code>/setvip &lt;level&gt; &lt;price&gt; &lt;daily profit&gt; &lt;days&gt; [name]</code>\n"+
			"<code>/block &lt;phone&gt;</code>, <code>/unblock &lt;phone&gt;</code>",
		utils.FormatCurrency(settings.MinWithdrawal), settings.Version, b.service.Catalog().Version(),
	), keyboard)
}

func (b *Bot) handleAdminCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, admin *models.User) {
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	data := callback.Data

	switch {
	case strings.HasPrefix(data, "adm_list:"):
		kind, pageStr, _ := strings.Cut(strings.TrimPrefix(data, "adm_list:"), ":")
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			b.logger.Errorf("Invalid page number in callback: %v", err)
			b.answerCallback(callback.ID, "")
			return
		}
		b.answerCallback(callback.ID, "")
		if kind == listTickets {
			b.sendTicketsPage(ctx, chatID, admin, page)
			return
		}
		b.sendPendingPage(ctx, chatID, admin, models.TransactionType(kind), page)

	case strings.HasPrefix(data, "adm_ask:"):
		status, txID, _ := strings.Cut(strings.TrimPrefix(data, "adm_ask:"), ":")
		verb := "approve"
		if models.TransactionStatus(status) == models.StatusRejected {
			verb = "reject"
		}
		keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, "+verb, fmt.Sprintf("adm_tx:%s:%s", status, txID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "adm_cancel"),
		))
		b.editMessage(chatID, messageID, fmt.Sprintf("Are you sure you want to %s <code>%s</code>?", verb, txID), &keyboard)
		b.answerCallback(callback.ID, "")

	case strings.HasPrefix(data, "adm_tx:"):
		status, txID, _ := strings.Cut(strings.TrimPrefix(data, "adm_tx:"), ":")
		tx, err := b.service.ResolveTransaction(ctx, admin.ID, txID, models.TransactionStatus(status))
		if err != nil {
			if errorText(err) == msgInternalError {
				b.logger.Errorf("Failed to resolve transaction %s: %v", txID, err)
			}
			b.answerCallback(callback.ID, errorText(err))
			return
		}
		b.editMessage(chatID, messageID, fmt.Sprintf("%s <code>%s</code> %s", statusIcons[tx.Status], tx.ID, tx.Status), nil)
		b.answerCallback(callback.ID, "✅")
		b.notifyUserAboutResolution(ctx, tx)

	case strings.HasPrefix(data, "adm_tkt:"):
		status, tokenID, _ := strings.Cut(strings.TrimPrefix(data, "adm_tkt:"), ":")
		token, err := b.service.AdvanceToken(ctx, admin.ID, tokenID, models.SupportStatus(status))
		if err != nil {
			if errorText(err) == msgInternalError {
				b.logger.Errorf("Failed to advance ticket %s: %v", tokenID, err)
			}
			b.answerCallback(callback.ID, errorText(err))
			return
		}
		b.editMessage(chatID, messageID, formatToken(token), nil)
		b.answerCallback(callback.ID, "✅")
		b.notifyUserAboutToken(ctx, token)

	case data == "adm_cancel":
		b.editMessage(chatID, messageID, msgCancelled, nil)
		b.answerCallback(callback.ID, "")

	default:
		b.answerCallback(callback.ID, "")
	}
}

// pageBounds clamps page to the available items and returns the slice window.
func pageBounds(total, page int) (start, end, clamped int) {
	start = page * itemsPerPage
	if page < 0 || start >= total {
		start, page = 0, 0
	}
	end = start + itemsPerPage
	if end > total {
		end = total
	}
	return start, end, page
}

func paginationRow(prefix string, page, end, total int) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", fmt.Sprintf("%s:%d", prefix, page-1)))
	}
	if end < total {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s:%d", prefix, page+1)))
	}
	return row
}

func (b *Bot) sendPendingPage(ctx context.Context, chatID int64, admin *models.User, typ models.TransactionType, page int) {
	txs, err := b.service.ListPendingTransactions(ctx, admin.ID, typ)
	if err != nil {
		b.replyError(chatID, "list pending transactions", err, nil)
		return
	}
	if len(txs) == 0 {
		b.sendMessage(chatID, fmt.Sprintf("ℹ️ No pending %s requests.", strings.ToLower(string(typ))), nil)
		return
	}

	start, end, page := pageBounds(len(txs), page)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Pending %s requests (page %d of %d):\n\n",
		strings.ToLower(string(typ)), page+1, (len(txs)-1)/itemsPerPage+1))

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, end-start+1)
	for i, tx := range txs[start:end] {
		owner, err := b.service.GetUser(ctx, tx.UserID)
		ownerText := tx.UserID
		if err == nil && owner != nil {
			ownerText = fmt.Sprintf("%s (%s)", esc(owner.Username), esc(owner.Phone))
		}
		sb.WriteString(fmt.Sprintf("%d. 👤 %s\n%s\n🆔 <code>%s</code>\n\n", start+i+1, ownerText, formatTransaction(tx), tx.ID))

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d", start+i+1), fmt.Sprintf("adm_ask:%s:%s", models.StatusApproved, tx.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("❌ #%d", start+i+1), fmt.Sprintf("adm_ask:%s:%s", models.StatusRejected, tx.ID)),
		))
	}
	if nav := paginationRow("adm_list:"+string(typ), page, end, len(txs)); len(nav) > 0 {
		rows = append(rows, nav)
	}

	b.sendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendTicketsPage(ctx context.Context, chatID int64, admin *models.User, page int) {
	tokens, err := b.service.ListOpenSupportTokens(ctx, admin.ID)
	if err != nil {
		b.replyError(chatID, "list tickets", err, nil)
		return
	}
	if len(tokens) == 0 {
		b.sendMessage(chatID, "ℹ️ No open tickets.", nil)
		return
	}

	start, end, page := pageBounds(len(tokens), page)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎫 Open tickets (page %d of %d):\n\n", page+1, (len(tokens)-1)/itemsPerPage+1))

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, end-start+1)
	for i, token := range tokens[start:end] {
		sb.WriteString(fmt.Sprintf("%d. 👤 %s\n%s\n\n", start+i+1, esc(token.Username), formatToken(token)))

		row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
		if token.Status == models.SupportOpen {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🔧 #%d", start+i+1), fmt.Sprintf("adm_tkt:%s:%s", models.SupportInProgress, token.ID)))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d", start+i+1), fmt.Sprintf("adm_tkt:%s:%s", models.SupportResolved, token.ID)))
		rows = append(rows, row)
	}
	if nav := paginationRow("adm_list:"+listTickets, page, end, len(tokens)); len(nav) > 0 {
		rows = append(rows, nav)
	}

	b.sendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleSetMinWithdrawal(ctx context.Context, chatID int64, admin *models.User, args []string) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Usage: <code>/minwithdraw &lt;amount&gt;</code>", nil)
		return
	}

	value, err := decimal.NewFromString(args[0])
	if err != nil {
		b.sendMessage(chatID, msgInvalidInput, nil)
		return
	}

	cfg, err := b.service.UpdateMinWithdrawal(ctx, admin.ID, value)
	if err != nil {
		b.replyError(chatID, "update min withdrawal", err, nil)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ Minimum withdrawal is now %s (config v%d).",
		utils.FormatCurrency(cfg.MinWithdrawal), cfg.Version), GetMainMenu(admin.IsAdmin))
}

func (b *Bot) handleSetVIP(ctx context.Context, chatID int64, admin *models.User, args []string) {
	const usage = "Usage: <code>/setvip &lt;level&gt; &lt;price&gt; &lt;daily profit&gt; &lt;days&gt; [name]</code>"
	if len(args) < 4 {
		b.sendMessage(chatID, usage, nil)
		return
	}

	level, errLevel := strconv.Atoi(args[0])
	price, errPrice := decimal.NewFromString(args[1])
	profit, errProfit := decimal.NewFromString(args[2])
	days, errDays := strconv.Atoi(args[3])
	if errLevel != nil || errPrice != nil || errProfit != nil || errDays != nil {
		b.sendMessage(chatID, usage, nil)
		return
	}

	def := models.VIPLevel{
		Name:         fmt.Sprintf("VIP %d", level),
		Price:        price,
		DailyProfit:  profit,
		TasksPerDay:  1,
		ValidityDays: days,
	}
	if current, err := b.service.Catalog().Get(level); err == nil {
		def.Name = current.Name
		def.TasksPerDay = current.TasksPerDay
		def.ImageURL = current.ImageURL
	}
	if len(args) > 4 {
		def.Name = strings.Join(args[4:], " ")
	}

	tier, err := b.service.ReplaceLevel(ctx, admin.ID, level, def)
	if err != nil {
		b.replyError(chatID, "replace vip level", err, nil)
		return
	}

	b.sendMessage(chatID, "✅ Level updated.\n\n"+formatTier(tier), GetMainMenu(admin.IsAdmin))
}

func (b *Bot) handleBlock(ctx context.Context, chatID int64, admin *models.User, args []string, block bool) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Usage: <code>/block &lt;phone&gt;</code> or <code>/unblock &lt;phone&gt;</code>", nil)
		return
	}

	target, err := b.service.FindUserByPhone(ctx, admin.ID, args[0])
	if err != nil {
		b.replyError(chatID, "find user", err, nil)
		return
	}

	updated, err := b.service.SetBlocked(ctx, admin.ID, target.ID, block)
	if err != nil {
		b.replyError(chatID, "set blocked", err, nil)
		return
	}

	state := "unblocked"
	if updated.IsBlocked {
		state = "blocked"
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ %s (%s) is now %s.", esc(updated.Username), esc(updated.Phone), state), GetMainMenu(admin.IsAdmin))
}
