package chat

import (
	"errors"

	"github.com/rs/zerolog/log"

	"chitchat/models"
	"chitchat/protocol"
	"chitchat/store"
)

// SendMessage validates and persists a message, then pushes a live copy
// to every connection the receiver currently holds. The store write is
// the durability point: if it fails nothing is delivered. Live pushes are
// best-effort and never fail the operation.
func (s *Service) SendMessage(sender, receiver, text, fileURL, attachmentNote string) (models.Message, error) {
	draft := models.Message{
		SenderID:       sender,
		ReceiverID:     receiver,
		Text:           text,
		FileURL:        fileURL,
		AttachmentNote: attachmentNote,
	}
	if !draft.HasContent() {
		return models.Message{}, ErrInvalidPayload
	}

	exists, err := s.accounts.UserExists(receiver)
	if err != nil {
		return models.Message{}, storage("find receiver", err)
	}
	if !exists {
		return models.Message{}, ErrNotFound
	}

	msg, err := s.messages.InsertMessage(draft)
	if err != nil {
		return models.Message{}, storage("insert message", err)
	}

	// Push strictly after the write has committed. Offline receivers get
	// the message from history on their next fetch.
	event := protocol.ReceiveMessage(msg)
	for _, h := range s.registry.HandlesFor(receiver) {
		h.Send(event)
	}

	return msg, nil
}

// History returns every message between the caller and friendID in either
// direction, oldest first.
func (s *Service) History(userID, friendID string) ([]models.Message, error) {
	exists, err := s.accounts.UserExists(friendID)
	if err != nil {
		return nil, storage("find friend", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	messages, err := s.messages.MessagesBetween(userID, friendID)
	if err != nil {
		return nil, storage("query history", err)
	}
	return messages, nil
}

// LastMessagePerFriend reports the latest message exchanged with each
// accepted friend. An empty conversation yields the "No messages yet"
// sentinel with no timestamp rather than an error.
func (s *Service) LastMessagePerFriend(userID string) ([]models.LastMessage, error) {
	edges, err := s.friends.GetEdges(userID)
	if err != nil {
		return nil, storage("get edges", err)
	}

	summaries := make([]models.LastMessage, 0, len(edges))
	for _, edge := range edges {
		if edge.Status != models.StatusAccepted {
			continue
		}

		summary := models.LastMessage{
			FriendID:    edge.Counterpart,
			LastMessage: models.NoMessagesYet,
		}

		msg, err := s.messages.LatestBetween(userID, edge.Counterpart)
		switch {
		case err == nil:
			summary.LastMessage = msg.Text
			ts := msg.Timestamp
			summary.Timestamp = &ts
		case errors.Is(err, store.ErrNoRows):
			// keep the sentinel
		default:
			return nil, storage("latest message", err)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// DeleteMessage hard-deletes by id. Deleting an id that does not exist is
// treated as success, matching the idempotent delete the API promises.
func (s *Service) DeleteMessage(id string) error {
	deleted, err := s.messages.DeleteMessage(id)
	if err != nil {
		return storage("delete message", err)
	}
	if !deleted {
		log.Debug().Str("message", id).Msg("delete of absent message")
	}
	return nil
}
