package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	stateDefault                = ""
	stateAwaitingDepositAmount  = "awaiting_deposit_amount"
	stateAwaitingWithdrawAmount = "awaiting_withdraw_amount"
	stateAwaitingWithdrawPin    = "awaiting_withdraw_pin"
	stateAwaitingNewPin         = "awaiting_new_pin"
	stateAwaitingSupport        = "awaiting_support_message"
)

func (b *Bot) sendMessage(chatID int64, text string, replyMarkup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorf("Failed to send message: %v", err)
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warnf("Failed to delete message %d: %v", messageID, err)
	}
}

func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Errorf("Failed to answer callback: %v", err)
	}
}

// --- conversation state ---

func (b *Bot) setState(chatID int64, state string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	if state == stateDefault {
		delete(b.userStates, chatID)
	} else {
		b.userStates[chatID] = state
	}
	b.logger.Debugf("Set state for chat %d: %q", chatID, state)
}

func (b *Bot) getUserState(chatID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.userStates[chatID]
}

func (b *Bot) setUserActionData(chatID int64, data string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	b.actionData[chatID] = data
}

func (b *Bot) getUserActionData(chatID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.actionData[chatID]
}

// resetConversation drops any half-finished flow for the chat.
func (b *Bot) resetConversation(chatID int64) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	delete(b.userStates, chatID)
	delete(b.actionData, chatID)
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Errorf("Failed to edit message %d: %v", messageID, err)
	}
}
