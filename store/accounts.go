package store

import (
	"database/sql"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chitchat/models"
)

// DefaultProfilePic is assigned to accounts created without an avatar.
const DefaultProfilePic = "https://w7.pngwing.com/pngs/831/88/png-transparent-user-profile-computer-icons-user-interface-mystique-miscellaneous-user-interface-design-smile-thumbnail.png"

func (s *Store) CreateUser(name, mobile, password string) (models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Mobile:       mobile,
		PasswordHash: string(hashed),
		ProfilePic:   DefaultProfilePic,
	}

	_, err = s.conn.Exec(
		"INSERT INTO users (id, name, mobile, password, profile_pic) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Mobile, user.PasswordHash, user.ProfilePic,
	)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) FindUserByID(id string) (models.User, error) {
	return s.scanUser(s.conn.QueryRow(
		"SELECT id, name, mobile, password, profile_pic FROM users WHERE id = ?", id,
	))
}

func (s *Store) FindUserByMobile(mobile string) (models.User, error) {
	return s.scanUser(s.conn.QueryRow(
		"SELECT id, name, mobile, password, profile_pic FROM users WHERE mobile = ?", mobile,
	))
}

func (s *Store) scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Mobile, &u.PasswordHash, &u.ProfilePic)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNoRows
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) UserExists(id string) (bool, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// VerifyCredential checks password against the stored hash for user.
func (s *Store) VerifyCredential(user models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (s *Store) UpdateUser(id, name, profilePic string) (models.User, error) {
	result, err := s.conn.Exec(
		"UPDATE users SET name = ?, profile_pic = ? WHERE id = ?",
		name, profilePic, id,
	)
	if err != nil {
		return models.User{}, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if rowsAffected == 0 {
		return models.User{}, ErrNoRows
	}

	return s.FindUserByID(id)
}

func (s *Store) ListUsers() ([]models.User, error) {
	rows, err := s.conn.Query("SELECT id, name, mobile, password, profile_pic FROM users")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Mobile, &u.PasswordHash, &u.ProfilePic); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
