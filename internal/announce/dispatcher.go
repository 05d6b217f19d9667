package announce

import (
	"github.com/pkg/errors"

	"pricewatch-telegram-bot/internal/alert"
)

// Sender posts announcement messages to a channel. Set announcements come
// back with the platform message id so it can anchor reaction collection.
type Sender interface {
	SendSetAnnouncement(workspaceID, channelID int64, text string) (int, error)
	SendTriggerAnnouncement(workspaceID, channelID int64, text string) (int, error)
}

// Dispatcher formats and sends the two protocol announcements.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// AnnounceSet posts the set announcement for a freshly created alert and
// returns the message id that becomes its announcement anchor.
func (d *Dispatcher) AnnounceSet(a *alert.Alert) (int, error) {
	text := FormatSet(a.Key.Symbol, PriceText(a.TargetPrice), a.Key.Screener, a.Key.Exchange, a.Note)
	id, err := d.sender.SendSetAnnouncement(a.WorkspaceID, a.ChannelID, text)
	if err != nil {
		return 0, errors.Wrapf(err, "could not announce alert for %s", a.Key.Symbol)
	}
	return id, nil
}

// Trigger posts the triggered announcement, mentioning every subscriber.
func (d *Dispatcher) Trigger(a *alert.Alert) error {
	text := FormatTriggered(a.Key.Symbol, PriceText(a.TargetPrice), a.Mentions())
	_, err := d.sender.SendTriggerAnnouncement(a.WorkspaceID, a.ChannelID, text)
	return errors.Wrapf(err, "could not send trigger notification for %s", a.Key.Symbol)
}
