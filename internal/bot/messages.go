package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/utils"
)

const (
	msgInternalError = "⚠️ Something went wrong. Please try again later."
	msgNotLinked     = "You are not logged in.\n\n" +
		"Create an account: <code>/register &lt;name&gt; &lt;phone&gt; [referral code]</code>\n" +
		"Or log in: <code>/login &lt;phone&gt;</code>"
	msgNotLinkedShort = "Log in first with /login."
	msgBlocked        = "⛔ Your account is blocked. Contact support."
	msgUnknown        = "Unknown command. Use the menu below."
	msgAdminOnly      = "This action is available to admins only."
	msgSlowDown       = "⏳ Too many requests, slow down a little."
	msgCancelled      = "❌ Cancelled."
	msgInvalidInput   = "❌ Invalid amount. Send a positive number."
)

// errorText turns an engine error into a message for the user.
func errorText(err error) string {
	switch {
	case errors.Is(err, service.ErrAlreadyHigherOrEqualTier):
		return "❌ You already hold this VIP level or a higher one."
	case errors.Is(err, service.ErrInsufficientBalance):
		return "❌ Not enough withdrawable balance."
	case errors.Is(err, service.ErrBelowMinimum):
		return "❌ The amount is below the minimum."
	case errors.Is(err, service.ErrInvalidPin):
		return "❌ Wrong withdraw PIN."
	case errors.Is(err, service.ErrNoActiveMembership):
		return "❌ You need an active VIP membership to do tasks."
	case errors.Is(err, service.ErrCooldownActive):
		return "⏳ Today's task is already done. Come back later."
	case errors.Is(err, service.ErrUserBlocked):
		return msgBlocked
	case errors.Is(err, service.ErrInvalidAmount):
		return msgInvalidInput
	case errors.Is(err, service.ErrInvalidMethod):
		return "❌ Unsupported payment method."
	case errors.Is(err, service.ErrInvalidInput):
		return "❌ Invalid input, please check and try again."
	case errors.Is(err, service.ErrAlreadyResolved):
		return "ℹ️ This request was already processed."
	case errors.Is(err, service.ErrInvalidTransition):
		return "❌ That status change is not allowed."
	case errors.Is(err, service.ErrPhoneTaken):
		return "❌ This phone number is already registered. Use /login."
	case errors.Is(err, service.ErrAlreadyRegistered):
		return "❌ This Telegram account is already linked to another user."
	case errors.Is(err, service.ErrForbidden):
		return msgAdminOnly
	case errors.Is(err, service.ErrNotFound):
		return "❌ Not found."
	}
	return msgInternalError
}

func esc(s string) string { return html.EscapeString(s) }

func formatDate(t time.Time) string {
	return utils.ToBanglaNum(t.Format("02/01/2006"))
}

func formatProfile(u *models.User, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 <b>%s</b>\n", esc(u.Username)))
	sb.WriteString(fmt.Sprintf("📱 %s\n", esc(u.Phone)))
	sb.WriteString(fmt.Sprintf("🔗 Referral code: <code>%s</code>\n\n", u.ReferralCode()))
	sb.WriteString(fmt.Sprintf("💼 Total balance: <b>%s</b>\n", utils.FormatCurrency(u.TotalBalance)))
	sb.WriteString(fmt.Sprintf("💵 Withdrawable: <b>%s</b>\n\n", utils.FormatCurrency(u.WithdrawableBalance)))

	if service.MembershipActive(u, now) {
		sb.WriteString(fmt.Sprintf("💎 VIP %s active until %s (%s days left)",
			utils.ToBanglaNum(fmt.Sprint(*u.ActiveVIP)),
			formatDate(*u.VIPExpiryDate),
			utils.ToBanglaNum(fmt.Sprint(service.RemainingDays(u, now))),
		))
	} else {
		sb.WriteString("💎 No active VIP membership")
	}
	return sb.String()
}

func formatTier(t models.VIPLevel) string {
	return fmt.Sprintf(
		"💎 <b>%s</b>\nPrice: %s\nDaily profit: %s\nValidity: %s days\nTotal profit: %s",
		esc(t.Name),
		utils.FormatCurrency(t.Price),
		utils.FormatCurrency(t.DailyProfit),
		utils.ToBanglaNum(fmt.Sprint(t.ValidityDays)),
		utils.FormatCurrency(t.TotalProfit()),
	)
}

var txIcons = map[models.TransactionType]string{
	models.TransactionDeposit:    "⬇️",
	models.TransactionWithdraw:   "⬆️",
	models.TransactionProfit:     "📈",
	models.TransactionCommission: "🤝",
}

var statusIcons = map[models.TransactionStatus]string{
	models.StatusPending:  "🕓",
	models.StatusApproved: "✅",
	models.StatusRejected: "❌",
}

func formatTransaction(tx *models.Transaction) string {
	line := fmt.Sprintf("%s %s %s %s · %s",
		txIcons[tx.Type], statusIcons[tx.Status], tx.Type, utils.FormatCurrency(tx.Amount), formatDate(tx.CreatedAt))
	if tx.Details != "" {
		line += "\n   " + esc(tx.Details)
	}
	return line
}

func formatToken(t *models.SupportToken) string {
	return fmt.Sprintf("🎫 <code>%s</code> [%s]\n<b>%s</b>\n%s", t.ID, t.Status, esc(t.Subject), esc(t.Message))
}
