package database

import (
	"github.com/pkg/errors"
)

// Message is one archived chat message.
type Message struct {
	WorkspaceID int64
	ChannelID   int64
	MessageID   int
	FromBot     bool
	Text        string
	CreatedAt   string
}

// Channel identifies one message room within a workspace.
type Channel struct {
	WorkspaceID int64
	ChannelID   int64
}

// RecordMessage archives a sent announcement.
func RecordMessage(m Message) error {
	query := `
	INSERT OR REPLACE INTO messages (workspace_id, channel_id, message_id, from_bot, text)
	VALUES (?, ?, ?, ?, ?);`

	_, err := DB.Exec(query, m.WorkspaceID, m.ChannelID, m.MessageID, m.FromBot, m.Text)
	if err != nil {
		return errors.Wrap(err, "failed to record message")
	}
	return nil
}

// ChannelHistory fetches the most recent messages of a channel, newest
// first, up to limit.
func ChannelHistory(channelID int64, limit int) ([]Message, error) {
	query := `
	SELECT workspace_id, channel_id, message_id, from_bot, text, created_at
	FROM messages
	WHERE channel_id = ?
	ORDER BY message_id DESC
	LIMIT ?;`

	rows, err := DB.Query(query, channelID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query history for channel %d", channelID)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.WorkspaceID, &m.ChannelID, &m.MessageID, &m.FromBot, &m.Text, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan message row")
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Channels returns every (workspace, channel) pair the bot has announced in.
func Channels() ([]Channel, error) {
	query := `SELECT DISTINCT workspace_id, channel_id FROM messages;`

	rows, err := DB.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query channels")
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.WorkspaceID, &c.ChannelID); err != nil {
			return nil, errors.Wrap(err, "failed to scan channel row")
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}
