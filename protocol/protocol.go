// Package protocol defines the push-channel wire format: a JSON envelope
// with a closed set of typed payloads, one schema per event.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"chitchat/models"
)

// Client-to-server event types.
const (
	EventJoin       = "join"
	EventTyping     = "typing"
	EventMessage    = "message"
	EventDisconnect = "disconnect"
)

// Server-to-client event types.
const (
	EventReceiveMessage   = "receiveMessage"
	EventUserStatusUpdate = "userStatusUpdate"
	EventUserTyping       = "userTyping"
	EventError            = "error"
)

// Presence states carried by userStatusUpdate.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Event is the envelope for every frame in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	UserID string `json:"userId"`
}

type TypingPayload struct {
	SenderID string `json:"senderId"`
}

// SendPayload is the client-side message submission. The server assigns
// id and timestamp; at least one of Text/FileURL must be set.
type SendPayload struct {
	ReceiverID     string `json:"receiverId"`
	Text           string `json:"text,omitempty"`
	FileURL        string `json:"fileURL,omitempty"`
	AttachmentNote string `json:"attachmentNote,omitempty"`
}

type StatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func Parse(raw []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, fmt.Errorf("malformed event: %w", err)
	}
	switch e.Type {
	case EventJoin, EventTyping, EventMessage, EventDisconnect:
		return e, nil
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}

// Decode unmarshals the envelope payload into the variant struct for its
// type. v must match the event's schema.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return errors.New("event has no payload")
	}
	return json.Unmarshal(e.Data, v)
}

func makeEvent(eventType string, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{Type: eventType, Data: data}
}

func ReceiveMessage(msg models.Message) Event {
	return makeEvent(EventReceiveMessage, msg)
}

func UserStatusUpdate(userID, status string) Event {
	return makeEvent(EventUserStatusUpdate, StatusPayload{UserID: userID, Status: status})
}

func UserTyping(senderID string) Event {
	return makeEvent(EventUserTyping, TypingPayload{SenderID: senderID})
}

func Error(message string) Event {
	return makeEvent(EventError, ErrorPayload{Message: message})
}
