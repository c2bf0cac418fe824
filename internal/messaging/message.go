package messaging

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentLength is the upper bound on message content, in runes.
const MaxContentLength = 2000

// UserID identifies a participant. The engine only compares ids; it never
// interprets them.
type UserID string

// MessageID is assigned by the store and strictly increases with creation order.
type MessageID uint64

// Message is a single direct message. Only IsRead ever changes after creation.
type Message struct {
	ID         MessageID `json:"id"`
	SenderID   UserID    `json:"senderId"`
	ReceiverID UserID    `json:"receiverId"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
	IsRead     bool      `json:"isRead"`
}

// Before reports whether m sorts before o in thread order: by SentAt, then by ID.
func (m Message) Before(o Message) bool {
	if !m.SentAt.Equal(o.SentAt) {
		return m.SentAt.Before(o.SentAt)
	}
	return m.ID < o.ID
}

// Counterpart returns the other participant relative to viewer. ok is false
// when viewer took no part in the message.
func (m Message) Counterpart(viewer UserID) (UserID, bool) {
	switch viewer {
	case m.SenderID:
		return m.ReceiverID, true
	case m.ReceiverID:
		return m.SenderID, true
	}
	return "", false
}

// UnreadFor reports whether m is waiting to be read by viewer.
func (m Message) UnreadFor(viewer UserID) bool {
	return m.ReceiverID == viewer && !m.IsRead
}

// NewMessage is the input to Store.Append.
type NewMessage struct {
	SenderID   UserID
	ReceiverID UserID
	Content    string
	SentAt     time.Time
}

// Normalize trims the content and validates the message. Stores call it
// before persisting anything.
func (n NewMessage) Normalize() (NewMessage, error) {
	n.Content = strings.TrimSpace(n.Content)
	switch {
	case n.SenderID == "":
		return n, &ValidationError{Field: "senderId", Reason: "is required"}
	case n.ReceiverID == "":
		return n, &ValidationError{Field: "receiverId", Reason: "is required"}
	case n.SenderID == n.ReceiverID:
		return n, &ValidationError{Field: "receiverId", Reason: "cannot send a message to yourself"}
	case n.Content == "":
		return n, &ValidationError{Field: "content", Reason: "cannot be empty"}
	case utf8.RuneCountInString(n.Content) > MaxContentLength:
		return n, &ValidationError{Field: "content", Reason: "exceeds maximum length"}
	}
	return n, nil
}

// DisplayInfo is what the identity collaborator knows about a user.
type DisplayInfo struct {
	ID           UserID `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Conversation is one inbox row for a viewer. It is derived on every read and
// has no identity of its own.
type Conversation struct {
	CounterpartID UserID       `json:"counterpartId"`
	Counterpart   *DisplayInfo `json:"counterpart"`
	LastMessage   Message      `json:"lastMessage"`
	UnreadCount   int          `json:"unreadCount"`
}

// Thread is the full exchange between the viewer and one counterpart, oldest first.
type Thread struct {
	CounterpartID UserID       `json:"counterpartId"`
	Counterpart   *DisplayInfo `json:"counterpart"`
	Messages      []Message    `json:"messages"`
}
