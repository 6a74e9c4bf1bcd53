package bot

// Config represents the configuration for the Telegram bot
type Config struct {
	// Bot API token from @BotFather
	Token string `koanf:"token"`
	// Chat that receives review reminders
	ChatID int64 `koanf:"chat_id"`
}

// Enabled reports whether reminders can be delivered through Telegram
func (c Config) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}
