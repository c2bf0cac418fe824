package messaging

import (
	"context"
	"time"
)

// Store is the append-only message log. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append validates and persists a new unread message.
	Append(ctx context.Context, msg NewMessage) (Message, error)
	// FindByID returns ErrNotFound when no message has the id.
	FindByID(ctx context.Context, id MessageID) (Message, error)
	// FindBetween returns the thread between a and b, ascending by (SentAt, ID).
	FindBetween(ctx context.Context, a, b UserID) ([]Message, error)
	FindByRecipient(ctx context.Context, user UserID) ([]Message, error)
	FindBySender(ctx context.Context, user UserID) ([]Message, error)
	// FindSince returns messages involving user sent strictly after since,
	// ascending by (SentAt, ID).
	FindSince(ctx context.Context, user UserID, since time.Time) ([]Message, error)
	CountUnread(ctx context.Context, viewer UserID) (int64, error)
	// MarkRead flips the unread messages in ids that are addressed to viewer
	// and returns how many changed.
	MarkRead(ctx context.Context, viewer UserID, ids []MessageID) (int64, error)
	// Atomically runs fn against a transactional view of the store. Nothing
	// fn wrote survives if it returns an error.
	Atomically(ctx context.Context, fn func(Store) error) error
}

// Directory is the identity collaborator used for display lookups.
type Directory interface {
	// LookupUser returns ErrNotFound for ids it cannot resolve.
	LookupUser(ctx context.Context, id UserID) (DisplayInfo, error)
}
