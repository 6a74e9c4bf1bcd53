package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/progress"
	"github.com/example/lexigo/internal/spaced_repetition"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Constants for callback data
const (
	callbackDue   = "due"
	callbackStats = "stats"
)

// dueListLimit caps the words listed by /due
const dueListLimit = 10

// Bot answers /due and /stats in the configured chat
type Bot struct {
	poller *tgbotapi.BotAPI
	api    sender
	chatID int64
	repos  *database.Repositories
	srs    *spaced_repetition.Scheduler
	clock  spaced_repetition.Clock
	logger *zap.Logger
}

// New creates a command bot
func New(api *tgbotapi.BotAPI, chatID int64, repos *database.Repositories, clock spaced_repetition.Clock, logger *zap.Logger) *Bot {
	return &Bot{
		poller: api,
		api:    api,
		chatID: chatID,
		repos:  repos,
		srs:    spaced_repetition.New(),
		clock:  clock,
		logger: logger,
	}
}

// Run polls for updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.poller.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one update
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var (
		chatID  int64
		command string
	)
	switch {
	case update.Message != nil && update.Message.Chat != nil && update.Message.IsCommand():
		chatID = update.Message.Chat.ID
		command = update.Message.Command()
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
		command = update.CallbackQuery.Data
	default:
		return
	}

	if b.chatID != 0 && chatID != b.chatID {
		b.logger.Warn("ignoring update from unknown chat", zap.Int64("chat_id", chatID))
		return
	}

	var (
		text string
		err  error
	)
	switch command {
	case "start", "menu":
		text = "Welcome to LexiGo! 🎓\n\n/due - words waiting for review\n/stats - your progress"
	case callbackDue:
		text, err = b.dueText(ctx)
	case callbackStats:
		text, err = b.statsText(ctx)
	default:
		text = "Unknown command. Use /menu to show the main menu."
	}
	if err != nil {
		b.logger.Error("failed to handle command", zap.String("command", command), zap.Error(err))
		text = "❌ Something went wrong, please try again later."
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(mainMenu())
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) dueText(ctx context.Context) (string, error) {
	notebook, err := b.repos.Notebook.All(ctx)
	if err != nil {
		return "", err
	}
	today := b.clock.Today()
	total := b.srs.CountDue(notebook, today)
	if total == 0 {
		return "🎉 Nothing to review today!", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 %d words due for review:\n", total)
	for _, r := range b.srs.SelectDue(notebook, today, dueListLimit) {
		fmt.Fprintf(&sb, "• %s: %s\n", r.Word.Word, r.Translation)
	}
	if total > dueListLimit {
		fmt.Fprintf(&sb, "…and %d more", total-dueListLimit)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (b *Bot) statsText(ctx context.Context) (string, error) {
	stats, err := b.repos.Stats.Get(ctx)
	if err != nil {
		return "", err
	}
	notebook, err := b.repos.Notebook.All(ctx)
	if err != nil {
		return "", err
	}
	report := progress.Analyze(b.srs, notebook, b.clock.Today())
	pet := progress.PetStageFor(stats.TotalWords)

	return fmt.Sprintf("📊 Your progress\n\n🔥 Streak: %d days\n📖 Words learned: %d\n✅ Mastered: %d\n🎯 Accuracy: %d%%\n⚔️ Arena record: %d\n%s Pet: %s",
		stats.Streak, stats.TotalWords, report.Mastered, report.Accuracy, stats.ArenaHighScore, pet.Emoji, pet.Name), nil
}
