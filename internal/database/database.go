// Package database keeps the bot's announcement archive. Telegram bots
// cannot read chat history back, so every protocol announcement (and every
// notify-button tap) is mirrored here; reconciliation re-parses the stored
// message text after a restart. Only raw text is stored, never structured
// alert state.
package database

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(dbPath string) error {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create database directory")
		}
	}

	var err error
	DB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}

	createMessagesTable := `
	CREATE TABLE IF NOT EXISTS messages (
		workspace_id INTEGER NOT NULL,
		channel_id INTEGER NOT NULL,
		message_id INTEGER NOT NULL,
		from_bot INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (channel_id, message_id)
	);`
	if _, err = DB.Exec(createMessagesTable); err != nil {
		return errors.Wrap(err, "failed to create messages table")
	}

	createReactionsTable := `
	CREATE TABLE IF NOT EXISTS reactions (
		channel_id INTEGER NOT NULL,
		message_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (channel_id, message_id, user_id)
	);`
	if _, err = DB.Exec(createReactionsTable); err != nil {
		return errors.Wrap(err, "failed to create reactions table")
	}

	log.Debug("database initialized")
	return nil
}

func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
