package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"chitchat/models"
)

// Timestamps are stored with nanosecond precision; the seq column breaks
// ties so history order always matches insertion order.
const timeLayout = time.RFC3339Nano

// InsertMessage persists msg with a server-assigned id and timestamp and
// returns the completed record.
func (s *Store) InsertMessage(msg models.Message) (models.Message, error) {
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now().UTC()

	_, err := s.conn.Exec(
		"INSERT INTO messages (id, sender, receiver, text, file_url, attachment_note, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Text, msg.FileURL, msg.AttachmentNote,
		msg.Timestamp.Format(timeLayout),
	)
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// MessagesBetween returns every message exchanged between a and b in
// either direction, oldest first.
func (s *Store) MessagesBetween(a, b string) ([]models.Message, error) {
	query := `
		SELECT id, sender, receiver, text, file_url, attachment_note, timestamp
		FROM messages
		WHERE (sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)
		ORDER BY timestamp ASC, seq ASC
	`

	rows, err := s.conn.Query(query, a, b, b, a)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// LatestBetween returns the most recent message between a and b, or
// ErrNoRows when the conversation is empty.
func (s *Store) LatestBetween(a, b string) (models.Message, error) {
	query := `
		SELECT id, sender, receiver, text, file_url, attachment_note, timestamp
		FROM messages
		WHERE (sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)
		ORDER BY timestamp DESC, seq DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(query, a, b, b, a)
	if err != nil {
		return models.Message{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.Message{}, err
		}
		return models.Message{}, ErrNoRows
	}
	return scanMessage(rows)
}

// DeleteMessage removes the message by id and reports whether a row
// existed.
func (s *Store) DeleteMessage(id string) (bool, error) {
	result, err := s.conn.Exec("DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func scanMessage(rows *sql.Rows) (models.Message, error) {
	var m models.Message
	var timestampStr string
	if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.FileURL, &m.AttachmentNote, &timestampStr); err != nil {
		return models.Message{}, err
	}

	timestamp, err := time.Parse(timeLayout, timestampStr)
	if err != nil {
		return models.Message{}, err
	}
	m.Timestamp = timestamp

	return m, nil
}
