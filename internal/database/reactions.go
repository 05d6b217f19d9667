package database

import (
	"github.com/pkg/errors"
)

// Reaction is one notify-button tap mirrored for startup backfill.
type Reaction struct {
	ChannelID int64
	MessageID int
	UserID    int64
	UserName  string
}

// RecordReaction archives a tap. Repeated taps by the same user collapse
// into one row.
func RecordReaction(r Reaction) error {
	query := `
	INSERT OR IGNORE INTO reactions (channel_id, message_id, user_id, user_name)
	VALUES (?, ?, ?, ?);`

	_, err := DB.Exec(query, r.ChannelID, r.MessageID, r.UserID, r.UserName)
	if err != nil {
		return errors.Wrap(err, "failed to record reaction")
	}
	return nil
}

// MessageReactions fetches every recorded tap on one announcement.
func MessageReactions(channelID int64, messageID int) ([]Reaction, error) {
	query := `
	SELECT channel_id, message_id, user_id, user_name
	FROM reactions
	WHERE channel_id = ? AND message_id = ?;`

	rows, err := DB.Query(query, channelID, messageID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query reactions for message %d", messageID)
	}
	defer rows.Close()

	var reactions []Reaction
	for rows.Next() {
		var r Reaction
		if err := rows.Scan(&r.ChannelID, &r.MessageID, &r.UserID, &r.UserName); err != nil {
			return nil, errors.Wrap(err, "failed to scan reaction row")
		}
		reactions = append(reactions, r)
	}
	return reactions, rows.Err()
}
