package models

import "time"

// Edge statuses for a friend relationship. Each side of a relationship
// holds its own edge row; the two sides are mutated independently.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// NoMessagesYet is reported by the last-message summary for friends with
// an empty conversation.
const NoMessagesYet = "No messages yet"

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Mobile       string `json:"mobile"`
	PasswordHash string `json:"-"`
	ProfilePic   string `json:"profilePic"`
}

// FriendEdge is one side's record of a relationship. Owner is the user the
// row belongs to, Counterpart the other party, Requester whoever initiated
// the request.
type FriendEdge struct {
	Owner       string
	Counterpart string
	Requester   string
	Status      string
}

type Message struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Text           string    `json:"text,omitempty"`
	FileURL        string    `json:"fileURL,omitempty"`
	AttachmentNote string    `json:"attachmentNote,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// HasContent reports whether the message carries text or an attachment.
// Messages with neither are rejected at creation.
func (m Message) HasContent() bool {
	return m.Text != "" || m.FileURL != ""
}

// FriendInfo is a friend edge joined with the counterpart's display
// attributes for listing endpoints.
type FriendInfo struct {
	FriendID   string `json:"friendId"`
	FriendName string `json:"friendName"`
	ProfilePic string `json:"profilePic"`
	Status     string `json:"status,omitempty"`
}

// LastMessage summarises the most recent exchange with one friend.
// Timestamp is nil when no messages have been exchanged.
type LastMessage struct {
	FriendID    string     `json:"friendId"`
	LastMessage string     `json:"lastMessage"`
	Timestamp   *time.Time `json:"timestamp"`
}
