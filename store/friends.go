package store

import (
	"database/sql"

	"chitchat/models"
)

func (s *Store) GetEdges(owner string) ([]models.FriendEdge, error) {
	rows, err := s.conn.Query(
		"SELECT owner, counterpart, requester, status FROM friends WHERE owner = ?", owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []models.FriendEdge
	for rows.Next() {
		var e models.FriendEdge
		if err := rows.Scan(&e.Owner, &e.Counterpart, &e.Requester, &e.Status); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

func (s *Store) GetEdge(owner, counterpart string) (models.FriendEdge, error) {
	var e models.FriendEdge
	err := s.conn.QueryRow(
		"SELECT owner, counterpart, requester, status FROM friends WHERE owner = ? AND counterpart = ?",
		owner, counterpart,
	).Scan(&e.Owner, &e.Counterpart, &e.Requester, &e.Status)
	if err == sql.ErrNoRows {
		return models.FriendEdge{}, ErrNoRows
	}
	if err != nil {
		return models.FriendEdge{}, err
	}
	return e, nil
}

func (s *Store) InsertEdge(e models.FriendEdge) error {
	_, err := s.conn.Exec(
		"INSERT INTO friends (owner, counterpart, requester, status) VALUES (?, ?, ?, ?)",
		e.Owner, e.Counterpart, e.Requester, e.Status,
	)
	return err
}

func (s *Store) UpdateEdgeStatus(owner, counterpart, status string) error {
	result, err := s.conn.Exec(
		"UPDATE friends SET status = ? WHERE owner = ? AND counterpart = ?",
		status, owner, counterpart,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNoRows
	}

	return nil
}

// HideUser adds hidden to owner's visibility exclusion set. Adding an
// already hidden user is a no-op.
func (s *Store) HideUser(owner, hidden string) error {
	_, err := s.conn.Exec(
		"INSERT OR IGNORE INTO hidden_users (owner, hidden) VALUES (?, ?)",
		owner, hidden,
	)
	return err
}

func (s *Store) UnhideUser(owner, hidden string) error {
	_, err := s.conn.Exec(
		"DELETE FROM hidden_users WHERE owner = ? AND hidden = ?",
		owner, hidden,
	)
	return err
}

func (s *Store) HiddenUsers(owner string) ([]string, error) {
	rows, err := s.conn.Query("SELECT hidden FROM hidden_users WHERE owner = ?", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hidden []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		hidden = append(hidden, id)
	}

	return hidden, rows.Err()
}
