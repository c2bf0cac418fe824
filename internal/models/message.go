package models

import (
	"time"
)

// Message is a row of the append-only direct message log.
// IDs are auto-incremented so they follow creation order and break SentAt ties.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   string    `gorm:"size:36;not null;index:idx_messages_pair,priority:1" json:"senderId"`
	ReceiverID string    `gorm:"size:36;not null;index:idx_messages_pair,priority:2;index" json:"receiverId"`
	Content    string    `gorm:"size:2000;not null" json:"content"`
	SentAt     time.Time `gorm:"not null;index;precision:6" json:"sentAt"`
	IsRead     bool      `gorm:"not null;default:false" json:"isRead"`
}
