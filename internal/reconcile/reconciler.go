// Package reconcile rebuilds the in-memory alert registry at startup by
// re-parsing the bot's own announcement history.
package reconcile

import (
	"time"

	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/internal/alert"
	"pricewatch-telegram-bot/internal/announce"
	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/metrics"
)

// History is the readable record of past announcements and reactions.
type History interface {
	Channels() ([]database.Channel, error)
	ChannelHistory(channelID int64, limit int) ([]database.Message, error)
	MessageReactions(channelID int64, messageID int) ([]database.Reaction, error)
}

// Archive adapts the sqlite announcement archive to History.
type Archive struct{}

func (Archive) Channels() ([]database.Channel, error) {
	return database.Channels()
}

func (Archive) ChannelHistory(channelID int64, limit int) ([]database.Message, error) {
	return database.ChannelHistory(channelID, limit)
}

func (Archive) MessageReactions(channelID int64, messageID int) ([]database.Reaction, error) {
	return database.MessageReactions(channelID, messageID)
}

// Reconciler scans each channel's recent announcements once, restores alerts
// whose set message has no matching triggered message, and backfills their
// subscriber sets.
type Reconciler struct {
	store   *alert.Store
	history History
	botID   int64
	window  int
}

func New(store *alert.Store, history History, botID int64, window int) *Reconciler {
	return &Reconciler{store: store, history: history, botID: botID, window: window}
}

// Run repopulates the store. It never fails: unreadable channels and
// unparseable messages are logged and skipped, and running it again over an
// unchanged history restores nothing new.
func (r *Reconciler) Run() {
	channels, err := r.history.Channels()
	if err != nil {
		log.Errorf("error listing channels for reconciliation: %v", err)
		return
	}

	restored := 0
	for _, ch := range channels {
		restored += r.reconcileChannel(ch)
	}
	metrics.AlertsActive.Set(float64(r.store.Len()))
	log.Infof("reconciliation complete, %d alert(s) restored", restored)
}

func (r *Reconciler) reconcileChannel(ch database.Channel) int {
	messages, err := r.history.ChannelHistory(ch.ChannelID, r.window)
	if err != nil {
		log.Errorf("error reading channel %d: %v", ch.ChannelID, err)
		return 0
	}

	restored := 0
	for _, msg := range messages {
		if !msg.FromBot {
			continue
		}
		set, ok := announce.ParseSet(msg.Text)
		if !ok {
			continue
		}
		if resolvedInWindow(messages, set) {
			continue
		}

		a := alert.New(ch.WorkspaceID, ch.ChannelID,
			alert.NewInstrumentKey(set.Symbol, set.Screener, set.Exchange), set.Target, set.Note)
		a.AnnouncementMessageID = msg.MessageID
		if t, err := time.Parse("2006-01-02 15:04:05", msg.CreatedAt); err == nil {
			a.CreatedAt = t
		}
		r.backfillSubscribers(ch.ChannelID, a)

		if r.store.UpsertFromReconciliation(a) {
			metrics.AlertsRestored.Inc()
			restored++
			log.Infof("restored alert for %s at %s in channel %d", set.Symbol, set.PriceText, ch.ChannelID)
		}
	}
	return restored
}

// resolvedInWindow reports whether the same window already holds a triggered
// announcement for this symbol and literal price text.
func resolvedInWindow(messages []database.Message, set announce.SetAnnouncement) bool {
	for _, m := range messages {
		if m.FromBot && announce.MatchesTriggered(m.Text, set.Symbol, set.PriceText) {
			return true
		}
	}
	return false
}

func (r *Reconciler) backfillSubscribers(channelID int64, a *alert.Alert) {
	reactions, err := r.history.MessageReactions(channelID, a.AnnouncementMessageID)
	if err != nil {
		log.Errorf("error reading reactions for message %d: %v", a.AnnouncementMessageID, err)
		return
	}
	for _, re := range reactions {
		if re.UserID == r.botID {
			continue
		}
		a.AddSubscriber(re.UserID, re.UserName)
	}
}
