package telegram

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/internal/alert"
	"pricewatch-telegram-bot/internal/announce"
	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/metrics"
	"pricewatch-telegram-bot/lib/helpers"
	"pricewatch-telegram-bot/lib/translation"
)

// watchCallback is the callback data of the notify button under every set
// announcement. A tap is this platform's reaction-add event.
const watchCallback = "alert_watch"

// NewBot creates new telegram bot
func NewBot(c BotConfig, store *alert.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	api.Debug = c.Debug

	b := &Bot{
		Bot:    api,
		Config: c,
		store:  store,
	}
	b.dispatcher = announce.NewDispatcher(b)
	b.tracker = alert.NewTracker(store, api.Self.ID)
	return b, nil
}

// Dispatcher returns the announcement dispatcher bound to this bot.
func (b *Bot) Dispatcher() *announce.Dispatcher {
	return b.dispatcher
}

func (b *Bot) SelfID() int64 {
	return b.Bot.Self.ID
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends an ephemeral MarkdownV2 reply; callers escape their
// text. Replies are never archived.
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// SendSetAnnouncement posts a set announcement with the notify button and
// archives its text for reconciliation. Announcements go out as plain text
// so the grammar round-trips byte-exact.
func (b *Bot) SendSetAnnouncement(workspaceID, channelID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(channelID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(translation.Translate("🔔 Notify me"), watchCallback),
	))

	sent, err := b.Bot.Send(msg)
	if err != nil {
		return 0, errors.Wrap(err, "could not send set announcement")
	}
	b.archive(workspaceID, channelID, sent.MessageID, text)
	return sent.MessageID, nil
}

// SendTriggerAnnouncement posts a triggered announcement and archives it so
// reconciliation can tell the alert was resolved.
func (b *Bot) SendTriggerAnnouncement(workspaceID, channelID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(channelID, text)

	sent, err := b.Bot.Send(msg)
	if err != nil {
		return 0, errors.Wrap(err, "could not send trigger announcement")
	}
	b.archive(workspaceID, channelID, sent.MessageID, text)
	return sent.MessageID, nil
}

func (b *Bot) archive(workspaceID, channelID int64, messageID int, text string) {
	err := database.RecordMessage(database.Message{
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		MessageID:   messageID,
		FromBot:     true,
		Text:        text,
	})
	if err != nil {
		log.Errorf("error archiving message %d: %v", messageID, err)
	}
}

// HandleUpdate processes a command update and returns the reply text, or ""
// when the command already answered for itself.
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	log.Debugf("received command: %s", u.Message.Command())

	switch u.Message.Command() {
	case "alert":
		args := strings.TrimSpace(u.Message.CommandArguments())
		if args == "list" {
			return b.handleAlertList(u.Message.Chat.ID)
		}
		return b.handleAlertSet(u)
	}

	return helpers.EscapeMarkdownV2(translation.Translate("Use /alert SYMBOL PRICE [SCREENER EXCHANGE [note]] to set a price alert, or /alert list to see active ones."))
}

// handleAlertSet runs the create → announce sequence for /alert.
func (b *Bot) handleAlertSet(u tgbotapi.Update) string {
	req, err := parseAlertArgs(u.Message.CommandArguments(), b.Config.DefaultScreener, b.Config.DefaultExchange)
	if err != nil {
		log.Debugf("rejected /alert arguments %q: %v", u.Message.CommandArguments(), err)
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /alert SYMBOL PRICE [SCREENER EXCHANGE [note]]"))
	}

	chatID := u.Message.Chat.ID
	a := alert.New(chatID, chatID, alert.NewInstrumentKey(req.Symbol, req.Screener, req.Exchange), req.Target, req.Note)

	if b.store.Policy() == alert.DuplicateReject && b.store.Exists(a) {
		return helpers.EscapeMarkdownV2(translation.Translate("An equal alert is already armed in this chat."))
	}

	messageID, err := b.dispatcher.AnnounceSet(a)
	if err != nil {
		log.Errorf("error announcing alert for %s: %v", a.Key.Symbol, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not announce the alert, please try again."))
	}
	a.AnnouncementMessageID = messageID

	if err := b.store.Create(a); err != nil {
		log.Errorf("error storing alert for %s: %v", a.Key.Symbol, err)
		return helpers.EscapeMarkdownV2(translation.Translate("An equal alert is already armed in this chat."))
	}

	metrics.AlertsCreated.Inc()
	metrics.AlertsActive.Set(float64(b.store.Len()))
	log.Infof("new alert added: %s at %v (screener=%s, exchange=%s) in chat %d",
		a.Key.Symbol, a.TargetPrice, a.Key.Screener, a.Key.Exchange, chatID)
	return ""
}

// handleAlertList renders the chat's armed alerts as a MarkdownV2 reply.
func (b *Bot) handleAlertList(chatID int64) string {
	active := b.store.List(chatID)
	if len(active) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("No active alerts in this chat."))
	}

	var list strings.Builder
	list.WriteString(helpers.EscapeMarkdownV2(translation.Translate("Active alerts:")))
	for _, a := range active {
		list.WriteString(fmt.Sprintf("\n• *%s* @ %s on %s \\(%s\\), set %s",
			helpers.EscapeMarkdownV2(a.Key.Symbol),
			helpers.FormatPriceUS(a.TargetPrice, true),
			helpers.EscapeMarkdownV2(a.Key.Exchange),
			helpers.EscapeMarkdownV2(a.Key.Screener),
			helpers.EscapeMarkdownV2(humanize.Time(a.CreatedAt)),
		))
	}
	return list.String()
}

// HandleCallbackQuery turns a notify-button tap into a subscriber entry and
// mirrors it to the archive for startup backfill.
func (b *Bot) HandleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery) {
	if callbackQuery.Data != watchCallback || callbackQuery.Message == nil || callbackQuery.From == nil {
		b.answerCallback(callbackQuery.ID, "")
		return
	}

	chatID := callbackQuery.Message.Chat.ID
	messageID := callbackQuery.Message.MessageID
	mention := mentionFor(callbackQuery.From)

	if !b.tracker.ReactionAdd(chatID, messageID, callbackQuery.From.ID, mention) {
		b.answerCallback(callbackQuery.ID, translation.Translate("This alert is no longer armed."))
		return
	}

	err := database.RecordReaction(database.Reaction{
		ChannelID: chatID,
		MessageID: messageID,
		UserID:    callbackQuery.From.ID,
		UserName:  mention,
	})
	if err != nil {
		log.Errorf("error recording reaction on message %d: %v", messageID, err)
	}

	b.answerCallback(callbackQuery.ID, translation.Translate("You will be mentioned when this alert triggers."))
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.Bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Errorf("error answering callback query: %v", err)
	}
}

func mentionFor(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return u.FirstName
}

type alertRequest struct {
	Symbol   string
	Target   float64
	Screener string
	Exchange string
	Note     string
}

// parseAlertArgs parses "/alert SYMBOL PRICE [SCREENER EXCHANGE [note...]]".
// Screener and exchange must be given together; everything after them is the
// note.
func parseAlertArgs(args, defaultScreener, defaultExchange string) (alertRequest, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return alertRequest{}, errors.New("symbol and target price are required")
	}

	// The announcement grammar cannot carry a sign, so only positive targets
	// are recoverable after a restart.
	target, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return alertRequest{}, errors.Errorf("invalid target price %q", fields[1])
	}

	req := alertRequest{
		Symbol:   fields[0],
		Target:   target,
		Screener: defaultScreener,
		Exchange: defaultExchange,
	}

	switch {
	case len(fields) == 3:
		return alertRequest{}, errors.New("screener and exchange must be given together")
	case len(fields) >= 4:
		req.Screener = fields[2]
		req.Exchange = fields[3]
		if len(fields) > 4 {
			req.Note = strings.Join(fields[4:], " ")
		}
	}

	return req, nil
}
