// Package chat is the core of the backend: it routes messages between
// the persistent stores and live connections, and reconciles the friend
// graph. Transport and HTTP concerns live elsewhere.
package chat

import (
	"errors"

	"chitchat/models"
	"chitchat/presence"
	"chitchat/store"
)

// AccountStore resolves identities. Credential checks never happen here;
// every operation receives an already-authenticated caller.
type AccountStore interface {
	FindUserByID(id string) (models.User, error)
	UserExists(id string) (bool, error)
	ListUsers() ([]models.User, error)
}

type MessageStore interface {
	InsertMessage(msg models.Message) (models.Message, error)
	MessagesBetween(a, b string) ([]models.Message, error)
	LatestBetween(a, b string) (models.Message, error)
	DeleteMessage(id string) (bool, error)
}

type FriendStore interface {
	GetEdges(owner string) ([]models.FriendEdge, error)
	GetEdge(owner, counterpart string) (models.FriendEdge, error)
	InsertEdge(e models.FriendEdge) error
	UpdateEdgeStatus(owner, counterpart, status string) error
	HideUser(owner, hidden string) error
	UnhideUser(owner, hidden string) error
	HiddenUsers(owner string) ([]string, error)
}

type Service struct {
	accounts AccountStore
	messages MessageStore
	friends  FriendStore
	registry *presence.Registry
}

func NewService(accounts AccountStore, messages MessageStore, friends FriendStore, registry *presence.Registry) *Service {
	return &Service{
		accounts: accounts,
		messages: messages,
		friends:  friends,
		registry: registry,
	}
}

// Registry exposes the presence registry for the transport layer.
func (s *Service) Registry() *presence.Registry {
	return s.registry
}

// Directory lists every account except the caller and the caller's
// visibility exclusion set.
func (s *Service) Directory(userID string) ([]models.User, error) {
	if _, err := s.accounts.FindUserByID(userID); err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storage("find user", err)
	}

	hidden, err := s.friends.HiddenUsers(userID)
	if err != nil {
		return nil, storage("hidden users", err)
	}
	hiddenSet := make(map[string]struct{}, len(hidden)+1)
	hiddenSet[userID] = struct{}{}
	for _, id := range hidden {
		hiddenSet[id] = struct{}{}
	}

	users, err := s.accounts.ListUsers()
	if err != nil {
		return nil, storage("list users", err)
	}

	visible := make([]models.User, 0, len(users))
	for _, u := range users {
		if _, ok := hiddenSet[u.ID]; ok {
			continue
		}
		visible = append(visible, u)
	}
	return visible, nil
}
