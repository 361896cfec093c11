// Package store is the SQLite persistence layer: accounts, friend edges,
// the visibility exclusion set, and messages.
package store

import (
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNoRows = errors.New("no rows found")

type Store struct {
	conn *sql.DB
}

func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			mobile TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			profile_pic TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS friends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			counterpart TEXT NOT NULL,
			requester TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			UNIQUE(owner, counterpart)
		)`,
		`CREATE TABLE IF NOT EXISTS hidden_users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			hidden TEXT NOT NULL,
			UNIQUE(owner, hidden)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			sender TEXT NOT NULL,
			receiver TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			file_url TEXT NOT NULL DEFAULT '',
			attachment_note TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender, receiver, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver, sender, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_friends_owner ON friends(owner)`,
		`CREATE INDEX IF NOT EXISTS idx_hidden_owner ON hidden_users(owner)`,
	}

	for _, query := range queries {
		if _, err := s.conn.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
