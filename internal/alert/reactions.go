package alert

// Tracker turns reaction events on announcement messages into subscriber
// entries on the matching armed alert.
type Tracker struct {
	store *Store
	botID int64
}

func NewTracker(store *Store, botID int64) *Tracker {
	return &Tracker{store: store, botID: botID}
}

// ReactionAdd subscribes the actor to the alert announced by messageID. It
// reports whether a subscription was recorded; reactions from the bot itself
// and reactions on anything but a live announcement are ignored.
func (t *Tracker) ReactionAdd(workspaceID int64, messageID int, userID int64, mention string) bool {
	if userID == t.botID {
		return false
	}
	a := t.store.FindByAnnouncement(workspaceID, messageID)
	if a == nil {
		return false
	}
	a.AddSubscriber(userID, mention)
	return true
}
