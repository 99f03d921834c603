package db

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open opens (or creates) the shared database file and runs migrations.
// The file is the rendezvous point for every locally open session, so it
// is opened in WAL mode with a busy timeout instead of failing fast on a
// lock held by another window.
func Open(path string, busyTimeout time.Duration) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", dsn(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	// SQLite allows a single writer per database file; funnelling this
	// process through one connection avoids SQLITE_BUSY churn between
	// the session goroutine and the refresh poller.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func dsn(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + path + "?" + q.Encode()
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            password_digest TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            created_at INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS groups (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            created_by INTEGER NOT NULL REFERENCES users(id),
            created_at INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS group_members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            group_id INTEGER NOT NULL REFERENCES groups(id),
            user_id INTEGER NOT NULL REFERENCES users(id),
            is_admin INTEGER NOT NULL DEFAULT 0,
            joined_at INTEGER NOT NULL,
            UNIQUE(group_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            sender_id INTEGER NOT NULL REFERENCES users(id),
            receiver_id INTEGER REFERENCES users(id),
            group_id INTEGER REFERENCES groups(id),
            body TEXT NOT NULL DEFAULT '',
            attachment_path TEXT,
            attachment_type TEXT,
            created_at INTEGER NOT NULL,
            edited INTEGER NOT NULL DEFAULT 0,
            deleted INTEGER NOT NULL DEFAULT 0,
            CHECK ((receiver_id IS NULL) <> (group_id IS NULL))
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_direct ON messages (sender_id, receiver_id) WHERE group_id IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_messages_group ON messages (group_id) WHERE group_id IS NOT NULL;`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	slog.Debug("database migrations applied")
	return nil
}
