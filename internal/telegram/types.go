package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pricewatch-telegram-bot/internal/alert"
	"pricewatch-telegram-bot/internal/announce"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token           string
	Debug           bool
	UpdatesTimeout  int
	DefaultScreener string
	DefaultExchange string
}

// Bot telegram interaction client
type Bot struct {
	Bot    *tgbotapi.BotAPI
	Config BotConfig

	store      *alert.Store
	dispatcher *announce.Dispatcher
	tracker    *alert.Tracker
}

// Message an ephemeral reply, not part of the announcement protocol.
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
