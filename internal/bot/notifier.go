package bot

import (
	"context"
	"fmt"

	"github.com/example/lexigo/internal/scheduler"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sender is the part of the Bot API used to deliver messages
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// mainMenu is shown under every bot reply
func mainMenu() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📚 Due words", CallbackData: callbackDue}, {Text: "📊 Stats", CallbackData: callbackStats}},
	}
}

// reminderText formats the reminder for count words
func reminderText(count int) string {
	noun := "words"
	if count == 1 {
		noun = "word"
	}
	return fmt.Sprintf("🔔 You have %d %s to review today! Open LexiGo to keep your streak alive.", count, noun)
}

// TelegramNotifier sends review reminders to a Telegram chat
type TelegramNotifier struct {
	api    sender
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier creates a notifier sending through api
func NewTelegramNotifier(api *tgbotapi.BotAPI, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}
}

// SendReminders implements the scheduler.Notifier interface
func (n *TelegramNotifier) SendReminders(_ context.Context, count int) error {
	msg := tgbotapi.NewMessage(n.chatID, reminderText(count))
	msg.ReplyMarkup = createKeyboard(mainMenu())

	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("failed to send reminder", zap.Int64("chat_id", n.chatID), zap.Error(err))
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	n.logger.Info("reminder delivered", zap.Int64("chat_id", n.chatID), zap.Int("count", count))
	return nil
}

// LogNotifier writes reminders to the log when no chat is configured
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendReminders implements the scheduler.Notifier interface
func (n *LogNotifier) SendReminders(_ context.Context, count int) error {
	n.logger.Info(reminderText(count), zap.Int("count", count))
	return nil
}

// NewNotifier returns a Telegram notifier when cfg is complete and a log notifier otherwise.
// The Bot API client is returned as well so the command bot can share it; it is nil for the log notifier.
func NewNotifier(cfg Config, logger *zap.Logger) (scheduler.Notifier, *tgbotapi.BotAPI, error) {
	if !cfg.Enabled() {
		return NewLogNotifier(logger), nil, nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create bot: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))
	return NewTelegramNotifier(api, cfg.ChatID, logger), api, nil
}
