// Package store implements the messaging persistence and identity
// collaborators on top of gorm.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"healthcare-messaging-server/internal/messaging"
	"healthcare-messaging-server/internal/models"
)

const threadOrder = "sent_at ASC, id ASC"

// MessageStore implements messaging.Store over the messages table.
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore creates a MessageStore. The messages table must already exist.
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append validates and inserts a new unread message.
func (s *MessageStore) Append(ctx context.Context, msg messaging.NewMessage) (messaging.Message, error) {
	msg, err := msg.Normalize()
	if err != nil {
		return messaging.Message{}, err
	}

	row := models.Message{
		SenderID:   string(msg.SenderID),
		ReceiverID: string(msg.ReceiverID),
		Content:    msg.Content,
		SentAt:     msg.SentAt,
		IsRead:     false,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return messaging.Message{}, storeErr("append", err)
	}
	return toMessage(row), nil
}

// FindByID retrieves a single message.
func (s *MessageStore) FindByID(ctx context.Context, id messaging.MessageID) (messaging.Message, error) {
	var row models.Message
	err := s.db.WithContext(ctx).First(&row, "id = ?", uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return messaging.Message{}, messaging.ErrNotFound
	}
	if err != nil {
		return messaging.Message{}, storeErr("find by id", err)
	}
	return toMessage(row), nil
}

// FindBetween returns the thread between a and b, oldest first.
func (s *MessageStore) FindBetween(ctx context.Context, a, b messaging.UserID) ([]messaging.Message, error) {
	return s.find("find between",
		s.db.WithContext(ctx).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
			Order(threadOrder))
}

func (s *MessageStore) FindByRecipient(ctx context.Context, user messaging.UserID) ([]messaging.Message, error) {
	return s.find("find by recipient", s.db.WithContext(ctx).Where("receiver_id = ?", user))
}

func (s *MessageStore) FindBySender(ctx context.Context, user messaging.UserID) ([]messaging.Message, error) {
	return s.find("find by sender", s.db.WithContext(ctx).Where("sender_id = ?", user))
}

// FindSince returns user's messages sent after since, oldest first.
func (s *MessageStore) FindSince(ctx context.Context, user messaging.UserID, since time.Time) ([]messaging.Message, error) {
	return s.find("find since",
		s.db.WithContext(ctx).
			Where("(sender_id = ? OR receiver_id = ?) AND sent_at > ?", user, user, since).
			Order(threadOrder))
}

// CountUnread counts the unread messages addressed to viewer.
func (s *MessageStore) CountUnread(ctx context.Context, viewer messaging.UserID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", viewer, false).
		Count(&count).Error
	if err != nil {
		return 0, storeErr("count unread", err)
	}
	return count, nil
}

// MarkRead flips the listed messages addressed to viewer in one statement.
// Rows already read or addressed to someone else are left alone.
func (s *MessageStore) MarkRead(ctx context.Context, viewer messaging.UserID, ids []messaging.MessageID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	rowIDs := lo.Map(ids, func(id messaging.MessageID, _ int) uint64 { return uint64(id) })
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("id IN ? AND receiver_id = ? AND is_read = ?", rowIDs, viewer, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, storeErr("mark read", res.Error)
	}
	return res.RowsAffected, nil
}

// Atomically runs fn inside a database transaction.
func (s *MessageStore) Atomically(ctx context.Context, fn func(messaging.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MessageStore{db: tx})
	})
}

func (s *MessageStore) find(op string, query *gorm.DB) ([]messaging.Message, error) {
	var rows []models.Message
	if err := query.Find(&rows).Error; err != nil {
		return nil, storeErr(op, err)
	}
	return lo.Map(rows, func(row models.Message, _ int) messaging.Message { return toMessage(row) }), nil
}

func toMessage(row models.Message) messaging.Message {
	return messaging.Message{
		ID:         messaging.MessageID(row.ID),
		SenderID:   messaging.UserID(row.SenderID),
		ReceiverID: messaging.UserID(row.ReceiverID),
		Content:    row.Content,
		SentAt:     row.SentAt,
		IsRead:     row.IsRead,
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &messaging.StoreError{Op: op, Err: err}
}
